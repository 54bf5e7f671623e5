// Package ledger implements the gig marketplace ledger: gig and
// application registries, worker assignment and bounty settlement over
// a single custody balance. Every operation runs inside one critical
// section so create/select/payout/withdraw never interleave partial
// effects.
package ledger

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gigboard/backend/internal/models"
)

// Roles consumed from the access-control collaborator.
const (
	RoleAdmin    = "admin"
	RolePauser   = "pauser"
	RoleGigOwner = "gig_owner"
)

// DefaultCommissionDivisor yields the 5% platform commission (1/20).
const DefaultCommissionDivisor = int64(20)

// RoleChecker is the capability check consumed before gated operations.
type RoleChecker interface {
	HasRole(ctx context.Context, role, identity string) (bool, error)
}

// Treasury moves value between party accounts and the ledger's custody
// account. A returned error means no funds moved.
type Treasury interface {
	Collect(ctx context.Context, from string, amount int64, reference string) error
	Disburse(ctx context.Context, to string, amount int64, reference string) error
}

// Notifier publishes ledger events. Emission is best effort and never
// fails the calling operation.
type Notifier interface {
	Emit(ctx context.Context, event models.Event)
}

type Config struct {
	CommissionDivisor int64
}

// Ledger owns the gig and application collections and their secondary
// indexes. Entities are never shared outside it; read operations return
// copies.
type Ledger struct {
	mu            sync.Mutex
	paused        bool
	balance       int64 // total custody funds, in cents
	gigs          []*models.Gig
	apps          []*models.Application
	ownerGigs     map[string][]uint64
	applicantApps map[string][]uint64

	roles             RoleChecker
	treasury          Treasury
	notify            Notifier
	commissionDivisor int64
}

func New(roles RoleChecker, treasury Treasury, notify Notifier, cfg Config) *Ledger {
	divisor := cfg.CommissionDivisor
	if divisor <= 0 {
		divisor = DefaultCommissionDivisor
	}
	return &Ledger{
		ownerGigs:         make(map[string][]uint64),
		applicantApps:     make(map[string][]uint64),
		roles:             roles,
		treasury:          treasury,
		notify:            notify,
		commissionDivisor: divisor,
	}
}

// CreateGig captures the funded amount into custody and records a new
// gig in one step; a gig never exists without funds backing it.
func (l *Ledger) CreateGig(ctx context.Context, caller, image, description string, kpis []string, amount int64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.paused {
		return 0, ErrPaused
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	gigID := uint64(len(l.gigs)) + 1
	if err := l.treasury.Collect(ctx, caller, amount, fmt.Sprintf("GIG-%d", gigID)); err != nil {
		log.Printf("[LEDGER] Funding capture failed for gig %d (creator %s): %v", gigID, caller, err)
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	gig := &models.Gig{
		ID:             gigID,
		Owner:          caller,
		AssignedWorker: models.NoWorker,
		Image:          image,
		Description:    description,
		Bounty:         amount,
		KPIs:           append([]string(nil), kpis...),
		CreatedAt:      time.Now().UTC(),
	}
	l.gigs = append(l.gigs, gig)
	l.ownerGigs[caller] = append(l.ownerGigs[caller], gigID)
	l.balance += amount

	log.Printf("[LEDGER] Gig %d created by %s, bounty %d", gigID, caller, amount)
	l.emit(ctx, models.EventGigCreated, map[string]any{
		"gigId":       gigID,
		"creator":     caller,
		"description": description,
		"amount":      amount,
	})
	return gigID, nil
}

// Gig returns the gig with the given id.
func (l *Ledger) Gig(gigID uint64) (models.Gig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	gig, err := l.gig(gigID)
	if err != nil {
		return models.Gig{}, err
	}
	return copyGig(gig), nil
}

// AllGigs returns every gig ordered by increasing id.
func (l *Ledger) AllGigs() ([]models.Gig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.gigs) == 0 {
		return nil, ErrNoGigs
	}
	out := make([]models.Gig, 0, len(l.gigs))
	for _, gig := range l.gigs {
		out = append(out, copyGig(gig))
	}
	return out, nil
}

// GigsByOwner returns the owner's gigs in creation order. The result may
// be empty.
func (l *Ledger) GigsByOwner(owner string) []models.Gig {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := l.ownerGigs[owner]
	out := make([]models.Gig, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyGig(l.gigs[id-1]))
	}
	return out
}

// SubmitApplication records a bid for an existing gig. Application ids
// are sequential in a namespace shared across all gigs.
func (l *Ledger) SubmitApplication(ctx context.Context, caller string, gigID uint64, coverLetter string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.paused {
		return 0, ErrPaused
	}
	if _, err := l.gig(gigID); err != nil {
		return 0, err
	}

	appID := uint64(len(l.apps)) + 1
	app := &models.Application{
		ID:          appID,
		GigID:       gigID,
		Applicant:   caller,
		CoverLetter: coverLetter,
		CreatedAt:   time.Now().UTC(),
	}
	l.apps = append(l.apps, app)
	l.applicantApps[caller] = append(l.applicantApps[caller], appID)

	log.Printf("[LEDGER] Application %d submitted by %s for gig %d", appID, caller, gigID)
	return appID, nil
}

// ApplicationsForGig scans all applications and returns those for the
// given gig in ascending application-id order.
func (l *Ledger) ApplicationsForGig(gigID uint64) ([]models.Application, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.gig(gigID); err != nil {
		return nil, err
	}
	out := []models.Application{}
	for _, app := range l.apps {
		if app.GigID == gigID {
			out = append(out, *app)
		}
	}
	return out, nil
}

// ApplicationsByApplicant returns the applicant's bids in submission
// order. The result may be empty.
func (l *Ledger) ApplicationsByApplicant(applicant string) []models.Application {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := l.applicantApps[applicant]
	out := make([]models.Application, 0, len(ids))
	for _, id := range ids {
		out = append(out, *l.apps[id-1])
	}
	return out
}

// SelectWorker binds the referenced application's applicant to the gig.
// Only the gig's owner may select, and the application must reference
// the target gig.
func (l *Ledger) SelectWorker(ctx context.Context, caller string, gigID, appID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.paused {
		return ErrPaused
	}
	gig, err := l.gig(gigID)
	if err != nil {
		return err
	}
	if appID < 1 || appID > uint64(len(l.apps)) {
		return fmt.Errorf("%w: application %d", ErrInvalidID, appID)
	}
	if gig.Owner != caller {
		return ErrNotGigOwner
	}
	app := l.apps[appID-1]
	if app.GigID != gigID {
		return fmt.Errorf("%w: application %d does not reference gig %d", ErrInvalidID, appID, gigID)
	}

	app.Selected = true
	gig.AssignedWorker = app.Applicant
	gig.IsAssigned = true

	log.Printf("[LEDGER] Worker %s assigned to gig %d (application %d)", app.Applicant, gigID, appID)
	l.emit(ctx, models.EventWorkerAssigned, map[string]any{
		"gigId":  gigID,
		"worker": app.Applicant,
	})
	return nil
}

// Payout settles an assigned gig once: the worker receives the bounty
// minus the platform commission, which stays in custody. State is
// committed before the transfer is attempted and rolled back if the
// transfer fails, so a gig can never be paid out twice.
func (l *Ledger) Payout(ctx context.Context, caller string, gigID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.paused {
		return ErrPaused
	}
	if err := l.requireRole(ctx, RoleGigOwner, caller); err != nil {
		return err
	}
	gig, err := l.gig(gigID)
	if err != nil {
		return err
	}
	if !gig.IsAssigned {
		return ErrWorkerNotSelected
	}
	if gig.IsPaid {
		return ErrAlreadyPaid
	}
	if gig.Bounty <= 0 {
		return ErrNoBounty
	}

	fullBounty := gig.Bounty
	commission := fullBounty / l.commissionDivisor
	workerShare := fullBounty - commission

	gig.Bounty = 0
	gig.IsPaid = true
	l.balance -= workerShare

	if err := l.treasury.Disburse(ctx, gig.AssignedWorker, workerShare, fmt.Sprintf("PAYOUT-%d", gigID)); err != nil {
		gig.Bounty = fullBounty
		gig.IsPaid = false
		l.balance += workerShare
		log.Printf("[LEDGER] Payout transfer failed for gig %d: %v", gigID, err)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	log.Printf("[LEDGER] Gig %d paid out: worker %s received %d, commission %d retained", gigID, gig.AssignedWorker, workerShare, commission)
	l.emit(ctx, models.EventGigPaid, map[string]any{
		"gigId":  gigID,
		"owner":  gig.Owner,
		"worker": gig.AssignedWorker,
		"amount": fullBounty,
	})
	return nil
}

// Withdraw transfers part of the custody balance to an admin caller.
func (l *Ledger) Withdraw(ctx context.Context, caller string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.paused {
		return ErrPaused
	}
	if err := l.requireRole(ctx, RoleAdmin, caller); err != nil {
		return err
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > l.balance {
		return ErrInsufficientBalance
	}

	l.balance -= amount

	if err := l.treasury.Disburse(ctx, caller, amount, "WD-"+uuid.NewString()); err != nil {
		l.balance += amount
		log.Printf("[LEDGER] Withdrawal transfer failed for %s: %v", caller, err)
		return fmt.Errorf("%w: %v", ErrWithdrawalFailed, err)
	}

	log.Printf("[LEDGER] Withdrawal of %d by %s", amount, caller)
	l.emit(ctx, models.EventWithdrawal, map[string]any{
		"recipient": caller,
		"amount":    amount,
	})
	return nil
}

// Deposit accepts inbound funds that match no other operation. It is
// never refused, only recorded, and stays available while paused.
func (l *Ledger) Deposit(ctx context.Context, from string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount <= 0 {
		return ErrInvalidAmount
	}
	if err := l.treasury.Collect(ctx, from, amount, "DEP-"+uuid.NewString()); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	l.balance += amount

	log.Printf("[LEDGER] Inbound funds: %d from %s", amount, from)
	l.emit(ctx, models.EventFundsReceived, map[string]any{
		"from":   from,
		"amount": amount,
	})
	return nil
}

// Pause stops all state-mutating operations. Read-only queries remain
// available.
func (l *Ledger) Pause(ctx context.Context, caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireRole(ctx, RolePauser, caller); err != nil {
		return err
	}
	l.paused = true
	log.Printf("[LEDGER] Paused by %s", caller)
	return nil
}

// Unpause resumes state-mutating operations.
func (l *Ledger) Unpause(ctx context.Context, caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireRole(ctx, RolePauser, caller); err != nil {
		return err
	}
	l.paused = false
	log.Printf("[LEDGER] Unpaused by %s", caller)
	return nil
}

// Paused reports whether mutating operations are currently refused.
func (l *Ledger) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// Balance returns the total custody funds held by the ledger.
func (l *Ledger) Balance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// GigCount returns the total number of gigs ever created.
func (l *Ledger) GigCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(len(l.gigs))
}

// ApplicationCount returns the total number of applications ever
// submitted.
func (l *Ledger) ApplicationCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(len(l.apps))
}

// gig resolves a gig id, enforcing the 1..count range. Callers must hold
// the lock.
func (l *Ledger) gig(gigID uint64) (*models.Gig, error) {
	if gigID < 1 || gigID > uint64(len(l.gigs)) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGigID, gigID)
	}
	return l.gigs[gigID-1], nil
}

func (l *Ledger) requireRole(ctx context.Context, role, identity string) error {
	ok, err := l.roles.HasRole(ctx, role, identity)
	if err != nil {
		return fmt.Errorf("role check failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnauthorized, role)
	}
	return nil
}

func (l *Ledger) emit(ctx context.Context, eventType string, data map[string]any) {
	if l.notify == nil {
		return
	}
	l.notify.Emit(ctx, models.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
}

func copyGig(gig *models.Gig) models.Gig {
	out := *gig
	out.KPIs = append([]string(nil), gig.KPIs...)
	return out
}
