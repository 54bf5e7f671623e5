// Package access holds role membership for the marketplace: admin,
// pauser and gig-owner capabilities checked before gated ledger
// operations.
package access

import (
	"context"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
)

type RoleService struct {
	redis *redis.Client
}

func NewRoleService(redisClient *redis.Client) *RoleService {
	return &RoleService{redis: redisClient}
}

func roleKey(role string) string {
	return fmt.Sprintf("roles:%s", role)
}

// HasRole reports whether the identity is a member of the role set.
func (s *RoleService) HasRole(ctx context.Context, role, identity string) (bool, error) {
	if s.redis == nil {
		return false, fmt.Errorf("role store unavailable")
	}
	return s.redis.SIsMember(ctx, roleKey(role), identity).Result()
}

// Grant adds the identity to the role set.
func (s *RoleService) Grant(ctx context.Context, role, identity string) error {
	if s.redis == nil {
		return fmt.Errorf("role store unavailable")
	}
	if err := s.redis.SAdd(ctx, roleKey(role), identity).Err(); err != nil {
		return err
	}
	log.Printf("[ROLES] Granted %s to %s", role, identity)
	return nil
}

// Revoke removes the identity from the role set.
func (s *RoleService) Revoke(ctx context.Context, role, identity string) error {
	if s.redis == nil {
		return fmt.Errorf("role store unavailable")
	}
	if err := s.redis.SRem(ctx, roleKey(role), identity).Err(); err != nil {
		return err
	}
	log.Printf("[ROLES] Revoked %s from %s", role, identity)
	return nil
}

// Seed grants the configured identities a role at startup. Identities
// already in the set are left untouched.
func (s *RoleService) Seed(ctx context.Context, role string, identities []string) error {
	for _, identity := range identities {
		if identity == "" {
			continue
		}
		if err := s.Grant(ctx, role, identity); err != nil {
			return fmt.Errorf("seeding role %s: %w", role, err)
		}
	}
	return nil
}
