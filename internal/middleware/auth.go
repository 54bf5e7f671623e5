package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

type contextKey string

// CallerKey carries the authenticated account identity: the implicit
// actor of every mutating call.
const CallerKey contextKey = "caller"

var authRedis *redis.Client

// InitAuthMiddleware wires the Redis client used for the token
// blacklist. A nil client disables blacklist checks.
func InitAuthMiddleware(redisClient *redis.Client) {
	authRedis = redisClient
}

// Caller returns the authenticated account identity from the request
// context, or "" when unauthenticated.
func Caller(r *http.Request) string {
	caller, _ := r.Context().Value(CallerKey).(string)
	return caller
}

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		// Extract token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		token := parts[1]

		if isBlacklisted(r.Context(), token) {
			http.Error(w, "Token revoked", http.StatusUnauthorized)
			return
		}

		accountID, err := validateToken(token)
		if err != nil || accountID == "" {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		// Add caller identity to context
		ctx := context.WithValue(r.Context(), CallerKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isBlacklisted(ctx context.Context, token string) bool {
	if authRedis == nil {
		return false
	}
	exists, err := authRedis.Exists(ctx, fmt.Sprintf("blacklist:%s", token)).Result()
	return err == nil && exists > 0
}

func validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(viper.GetString("jwt.secret_key")), nil
	})

	if err != nil || !token.Valid {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	accountID, _ := claims["account_id"].(string)
	return accountID, nil
}
