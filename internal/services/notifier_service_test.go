package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/anxin/internal/models"
)

func seedVerifiedLender(t *testing.T, db *gorm.DB, membershipType, lineUserID string) models.Profile {
	t.Helper()
	profile := models.Profile{
		FullName:        "金主丙",
		MembershipType:  membershipType,
		PaymentVerified: true,
	}
	if lineUserID != "" {
		profile.LineUserID = strPtr(lineUserID)
	}
	require.NoError(t, db.Create(&profile).Error)
	return profile
}

func TestNotifierRun(t *testing.T) {
	ctx := context.Background()

	t.Run("AlertsEveryVerifiedLender", func(t *testing.T) {
		db := setupTestDB(t)
		pusher := &stubPusher{}
		svc := NewNotifierService(db, pusher, time.Hour)

		seedVerifiedLender(t, db, "lender", "U-1")
		seedVerifiedLender(t, db, "旗艦", "U-2")
		loan := models.LoanRequest{Title: "創業資金", Amount: 200000, Status: models.LoanStatusPending}
		require.NoError(t, db.Create(&loan).Error)

		sent, err := svc.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, sent)
		assert.Len(t, pusher.alerts, 2)

		var interactions []models.LenderInteraction
		require.NoError(t, db.Find(&interactions).Error)
		require.Len(t, interactions, 2)
		for _, it := range interactions {
			assert.Equal(t, models.InteractionNotificationSent, it.InteractionType)
			assert.Equal(t, loan.ID, it.RequestID)
		}
	})

	t.Run("IgnoresUnverifiedAndNonLenderProfiles", func(t *testing.T) {
		db := setupTestDB(t)
		pusher := &stubPusher{}
		svc := NewNotifierService(db, pusher, time.Hour)

		unverified := models.Profile{MembershipType: "lender", LineUserID: strPtr("U-no-pay")}
		require.NoError(t, db.Create(&unverified).Error)
		borrower := models.Profile{MembershipType: "borrower", PaymentVerified: true, LineUserID: strPtr("U-borrower")}
		require.NoError(t, db.Create(&borrower).Error)

		require.NoError(t, db.Create(&models.LoanRequest{Title: "週轉", Status: models.LoanStatusPending}).Error)

		sent, err := svc.Run(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Empty(t, pusher.alerts)
	})

	t.Run("IgnoresOldAndNonPendingLoans", func(t *testing.T) {
		db := setupTestDB(t)
		pusher := &stubPusher{}
		svc := NewNotifierService(db, pusher, time.Hour)
		seedVerifiedLender(t, db, "lender", "U-1")

		require.NoError(t, db.Create(&models.LoanRequest{Title: "已媒合", Status: models.LoanStatusActive}).Error)

		old := models.LoanRequest{Title: "舊案件", Status: models.LoanStatusPending}
		require.NoError(t, db.Create(&old).Error)
		require.NoError(t, db.Model(&old).UpdateColumn("created_at", time.Now().UTC().Add(-2*time.Hour)).Error)

		sent, err := svc.Run(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
	})

	t.Run("SkipsLenderWithoutLineTarget", func(t *testing.T) {
		db := setupTestDB(t)
		pusher := &stubPusher{}
		svc := NewNotifierService(db, pusher, time.Hour)

		seedVerifiedLender(t, db, "lender", "")
		seedVerifiedLender(t, db, "lender", "U-ok")
		require.NoError(t, db.Create(&models.LoanRequest{Title: "資金需求", Status: models.LoanStatusPending}).Error)

		sent, err := svc.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		require.Len(t, pusher.alerts, 1)
		assert.Equal(t, "U-ok", pusher.alerts[0].UserID)
	})

	t.Run("UnconfiguredClientLeavesNoAuditRow", func(t *testing.T) {
		// A missing access token must surface as a push failure, never as a
		// delivery: notification_sent rows are an audit log.
		db := setupTestDB(t)
		svc := NewNotifierService(db, NewLineService("", "https://axnihao.com"), time.Hour)

		seedVerifiedLender(t, db, "lender", "U-1")
		require.NoError(t, db.Create(&models.LoanRequest{Title: "資金需求", Status: models.LoanStatusPending}).Error)

		sent, err := svc.Run(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)

		var count int64
		require.NoError(t, db.Model(&models.LenderInteraction{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("PushFailureLeavesNoAuditRow", func(t *testing.T) {
		db := setupTestDB(t)
		pusher := &stubPusher{err: errStubFailure}
		svc := NewNotifierService(db, pusher, time.Hour)

		seedVerifiedLender(t, db, "lender", "U-1")
		require.NoError(t, db.Create(&models.LoanRequest{Title: "資金需求", Status: models.LoanStatusPending}).Error)

		sent, err := svc.Run(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)

		var count int64
		require.NoError(t, db.Model(&models.LenderInteraction{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}
