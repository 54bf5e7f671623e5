package models

import (
	"time"
)

// Event types published to the notification queue
const (
	EventGigCreated     = "gig.created"
	EventWorkerAssigned = "gig.worker_assigned"
	EventGigPaid        = "gig.paid"
	EventWithdrawal     = "ledger.withdrawal"
	EventFundsReceived  = "ledger.funds_received"
)

// Event is a ledger notification pushed to the event queue
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data"`
}
