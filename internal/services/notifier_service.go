package services

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/example/anxin/internal/models"
)

// NotifierService pushes new loan requests to verified lender members.
type NotifierService struct {
	db     *gorm.DB
	pusher Pusher
	window time.Duration
	now    func() time.Time
}

// NewNotifierService creates a NotifierService. window bounds how far back
// a loan's created_at may lie to still count as new.
func NewNotifierService(db *gorm.DB, pusher Pusher, window time.Duration) *NotifierService {
	return &NotifierService{db: db, pusher: pusher, window: window, now: time.Now}
}

// Run fans newly created pending loans out to every verified lender and
// records a notification_sent interaction per successful push. It returns
// the number of notifications delivered. Push failures are logged and
// skipped; they leave no audit row.
func (s *NotifierService) Run(ctx context.Context) (int, error) {
	since := s.now().UTC().Add(-s.window)

	var loans []models.LoanRequest
	if err := s.db.WithContext(ctx).
		Where("status = ? AND created_at >= ?", models.LoanStatusPending, since).
		Find(&loans).Error; err != nil {
		return 0, err
	}

	log.Printf("[Notifier] Found %d new loan requests", len(loans))
	if len(loans) == 0 {
		return 0, nil
	}

	var lenders []models.Profile
	if err := s.db.WithContext(ctx).
		Where("membership_type IN ? AND payment_verified = ?", models.LenderMembershipTypes, true).
		Find(&lenders).Error; err != nil {
		return 0, err
	}

	log.Printf("[Notifier] Found %d lender members", len(lenders))
	if len(lenders) == 0 {
		return 0, nil
	}

	sent := 0
	for i := range loans {
		loan := &loans[i]
		for j := range lenders {
			lender := &lenders[j]

			target := lender.LineID
			if lender.LineUserID != nil && *lender.LineUserID != "" {
				target = *lender.LineUserID
			}
			if target == "" {
				continue
			}

			if err := s.pusher.PushLoanAlert(target, loan); err != nil {
				log.Printf("[Notifier] Alert for loan #%d to lender %s failed: %v", loan.ID, lender.ID, err)
				continue
			}

			interaction := models.LenderInteraction{
				LenderID:        lender.ID,
				RequestID:       loan.ID,
				InteractionType: models.InteractionNotificationSent,
				InteractionDate: s.now().UTC(),
			}
			if err := s.db.WithContext(ctx).Create(&interaction).Error; err != nil {
				log.Printf("[Notifier] Failed to record notification for loan #%d: %v", loan.ID, err)
			}
			sent++
		}
	}

	log.Printf("[Notifier] Sent %d notifications", sent)
	return sent, nil
}
