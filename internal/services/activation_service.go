package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/example/anxin/internal/models"
)

// Fallback membership durations in days when an order carries none.
var PlanDurations = map[string]int{
	"flagship": 30,
	"prestige": 60,
	"platinum": 90,
}

const defaultPlanDurationDays = 30

// ActivationSummary reports the outcome of one activation batch.
type ActivationSummary struct {
	Total     int
	Processed int
	Skipped   int
	Failed    int
}

// ActivationService turns confirmed bank transfer orders into active
// memberships.
type ActivationService struct {
	db     *gorm.DB
	mailer Mailer
	now    func() time.Time
}

// NewActivationService creates an ActivationService.
func NewActivationService(db *gorm.DB, mailer Mailer) *ActivationService {
	return &ActivationService{db: db, mailer: mailer, now: time.Now}
}

// ProcessOrders activates every order currently in confirmed state. Orders
// are processed independently: one failure is logged, counted and does not
// stop the batch. The returned error is non-nil when any order failed, so a
// scheduler sees a failed run while successful orders stay committed.
func (s *ActivationService) ProcessOrders(ctx context.Context) (*ActivationSummary, error) {
	if s.mailer == nil {
		return nil, fmt.Errorf("activation requires mail credentials; mailer is not configured")
	}

	var orders []models.BankTransferOrder
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.OrderStatusConfirmed).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("fetch confirmed orders: %w", err)
	}

	summary := &ActivationSummary{Total: len(orders)}
	log.Printf("[Activation] Found %d confirmed orders", len(orders))

	for i := range orders {
		order := &orders[i]
		claimed, err := s.processOrder(ctx, order)
		switch {
		case err != nil:
			log.Printf("[Activation] Order %s (user %s) failed: %v", order.ID, order.UserID, err)
			summary.Failed++
		case !claimed:
			summary.Skipped++
		default:
			summary.Processed++
		}
	}

	log.Printf("[Activation] Done: %d processed, %d skipped, %d failed",
		summary.Processed, summary.Skipped, summary.Failed)

	if summary.Failed > 0 {
		return summary, fmt.Errorf("%d of %d orders failed", summary.Failed, summary.Total)
	}
	return summary, nil
}

// processOrder claims and activates a single order. The claim is a
// conditional update from confirmed to processing: if another run already
// claimed the order, zero rows are affected and we skip it. Side effects
// only start after a successful claim, so overlapping runs cannot both
// activate the same order.
func (s *ActivationService) processOrder(ctx context.Context, order *models.BankTransferOrder) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.BankTransferOrder{}).
		Where("id = ? AND status = ?", order.ID, models.OrderStatusConfirmed).
		Update("status", models.OrderStatusProcessing)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		log.Printf("[Activation] Order %s already claimed, skipping", order.ID)
		return false, nil
	}

	durationDays := order.DurationDays
	if durationDays <= 0 {
		if d, ok := PlanDurations[order.PlanCode]; ok {
			durationDays = d
		} else {
			durationDays = defaultPlanDurationDays
		}
	}
	vipUntil := s.now().UTC().Add(time.Duration(durationDays) * 24 * time.Hour)

	if err := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", order.UserID).
		Updates(map[string]any{
			"plan_type":             order.PlanCode,
			"vip_until":             vipUntil,
			"carrier_number":        order.CarrierNumber,
			"transfer_last5_digits": order.TransferLast5,
		}).Error; err != nil {
		return true, fmt.Errorf("update profile %s: %w", order.UserID, err)
	}

	var profile models.Profile
	if err := s.db.WithContext(ctx).
		First(&profile, "id = ?", order.UserID).Error; err != nil {
		return true, fmt.Errorf("fetch profile %s: %w", order.UserID, err)
	}

	log.Printf("[Activation] User %s membership updated: %s until %s",
		order.UserID, order.PlanCode, vipUntil.Format(time.RFC3339))

	// Each email is fire-and-forget; one failing must not block the others
	// or the order's completion.
	if err := s.mailer.SendAdminReport(order, &profile); err != nil {
		log.Printf("[Activation] Admin report for order %s failed: %v", order.ID, err)
	}
	if err := s.mailer.SendUserConfirmation(order, &profile, vipUntil); err != nil {
		log.Printf("[Activation] User confirmation for order %s failed: %v", order.ID, err)
	}
	if err := s.mailer.SendFinanceReminder(order, &profile); err != nil {
		log.Printf("[Activation] Finance reminder for order %s failed: %v", order.ID, err)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.BankTransferOrder{}).
		Where("id = ?", order.ID).
		Update("status", models.OrderStatusActivated).Error; err != nil {
		return true, fmt.Errorf("mark order activated: %w", err)
	}

	log.Printf("[Activation] Order %s activated", order.ID)
	return true, nil
}
