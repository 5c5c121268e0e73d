package models

import (
	"time"
)

// Line binding states for a profile.
const (
	BindingStatusUnbound = "unbound"
	BindingStatusLinked  = "linked"
)

// Membership types eligible for loan notifications.
var LenderMembershipTypes = []string{"lender", "旗艦", "尊榮", "鉑金"}

// Profile is a registered marketplace participant (borrower or lender).
type Profile struct {
	BaseModel
	FullName            string     `json:"full_name"`
	Phone               string     `json:"phone"`
	Email               string     `json:"email"`
	LineID              string     `gorm:"index" json:"line_id"`
	LineUserID          *string    `gorm:"index" json:"line_user_id"`
	LineDisplayName     string     `json:"line_display_name"`
	LineBindingStatus   string     `gorm:"default:unbound" json:"line_binding_status"`
	LineBindingAt       *time.Time `json:"line_binding_at"`
	MembershipType      string     `json:"membership_type"`
	PlanType            string     `json:"plan_type"`
	VipUntil            *time.Time `json:"vip_until"`
	PaymentVerified     bool       `json:"payment_verified"`
	CarrierNumber       string     `json:"carrier_number"`
	TransferLast5Digits string     `json:"transfer_last_5_digits"`
}
