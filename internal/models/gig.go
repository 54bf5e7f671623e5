package models

import (
	"time"
)

// NoWorker is the AssignedWorker value of a gig before selection.
const NoWorker = ""

// Gig represents a posted, funded task
type Gig struct {
	ID             uint64    `json:"id" db:"id" example:"1"`
	Owner          string    `json:"owner" db:"owner" example:"1234567890"` // Creator account ID
	AssignedWorker string    `json:"assignedWorker" db:"assigned_worker"`   // Selected applicant, empty until assignment
	Image          string    `json:"image" db:"image"`
	Description    string    `json:"description" db:"description"`
	Bounty         int64     `json:"bounty" db:"bounty"` // in cents, zeroed once paid
	KPIs           []string  `json:"kpis" db:"kpis"`
	IsAssigned     bool      `json:"isAssigned" db:"is_assigned"`
	IsPaid         bool      `json:"isPaid" db:"is_paid"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// Application represents one applicant's bid for a gig
type Application struct {
	ID          uint64    `json:"id" db:"id" example:"1"`
	GigID       uint64    `json:"gigId" db:"gig_id"`
	Applicant   string    `json:"applicant" db:"applicant"` // Submitter account ID
	CoverLetter string    `json:"coverLetter" db:"cover_letter"`
	Selected    bool      `json:"selected" db:"selected"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
