package models

import (
	"time"

	"github.com/google/uuid"
)

// Loan request lifecycle states.
const (
	LoanStatusPending   = "pending"
	LoanStatusActive    = "active"
	LoanStatusCompleted = "completed"
	LoanStatusRejected  = "rejected"
	LoanStatusClosed    = "closed"
)

// Interaction types recorded against a loan request.
const (
	InteractionNotificationSent = "notification_sent"
	InteractionCompleted        = "completed"
	InteractionRejected         = "rejected"
	InteractionViewed           = "viewed"
)

// LoanRequest is a borrower's funding request. The primary key is numeric
// because LINE postback payloads reference loans by integer id.
type LoanRequest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BorrowerID  uuid.UUID `gorm:"type:uuid;index" json:"borrower_id"`
	Title       string    `json:"title"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	City        string    `json:"city"`
	Status      string    `gorm:"index;default:pending" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LenderInteraction is an append-only audit entry for lender activity on a
// loan request. Rows are never updated or deleted.
type LenderInteraction struct {
	BaseModel
	LenderID         uuid.UUID `gorm:"type:uuid;index" json:"lender_id"`
	RequestID        uint      `gorm:"index" json:"request_id"`
	InteractionType  string    `json:"interaction_type"`
	InteractionDate  time.Time `json:"interaction_date"`
	InteractionNotes string    `json:"interaction_notes"`
}
