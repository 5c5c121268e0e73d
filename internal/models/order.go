package models

import (
	"time"

	"github.com/google/uuid"
)

// Bank transfer order lifecycle states. An order moves pending -> confirmed
// (reviewer approval) -> processing (claimed by an activation run) ->
// activated. The processing claim is what keeps two overlapping activation
// runs from consuming the same order.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusActivated  = "activated"
)

// BankTransferOrder is a membership payment awaiting or past review.
type BankTransferOrder struct {
	BaseModel
	OrderNo       string     `gorm:"uniqueIndex" json:"order_no"`
	UserID        uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	PlanCode      string     `json:"plan_code"`
	PlanName      string     `json:"plan_name"`
	Amount        int64      `json:"amount"`
	DurationDays  int        `json:"duration_days"`
	TransferLast5 string     `json:"transfer_last5"`
	TransferTime  *time.Time `json:"transfer_time"`
	ReceiptURL    string     `json:"receipt_url"`
	CarrierNumber string     `json:"carrier_number"`
	Status        string     `gorm:"index;default:pending" json:"status"`
	ReviewedBy    string     `json:"reviewed_by"`
	ReviewedAt    *time.Time `json:"reviewed_at"`
	ReviewNote    string     `json:"review_note"`
}
