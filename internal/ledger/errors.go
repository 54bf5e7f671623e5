package ledger

import "errors"

// Error kinds surfaced by ledger operations. Handlers map these to HTTP
// status codes; no partial writes survive a failing call.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidID           = errors.New("invalid ID")
	ErrInvalidGigID        = errors.New("invalid gig ID")
	ErrNoGigs              = errors.New("no gigs yet")
	ErrWorkerNotSelected   = errors.New("worker not selected")
	ErrAlreadyPaid         = errors.New("already paid")
	ErrNoBounty            = errors.New("no bounty available")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrWithdrawalFailed    = errors.New("withdrawal failed")
	ErrPaused              = errors.New("ledger is paused")
	ErrUnauthorized        = errors.New("missing required role")
	ErrNotGigOwner         = errors.New("caller is not the gig owner")
)
