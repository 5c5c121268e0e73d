package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/anxin/internal/models"
)

func seedMember(t *testing.T, svc *ActivationService, email string) models.Profile {
	t.Helper()
	profile := models.Profile{FullName: "Test", Email: email}
	require.NoError(t, svc.db.Create(&profile).Error)
	return profile
}

func seedConfirmedOrder(t *testing.T, svc *ActivationService, userID uuid.UUID, planCode string, durationDays int) models.BankTransferOrder {
	t.Helper()
	order := models.BankTransferOrder{
		OrderNo:       "BT-" + uuid.NewString()[:8],
		UserID:        userID,
		PlanCode:      planCode,
		Amount:        2000,
		DurationDays:  durationDays,
		TransferLast5: "54321",
		CarrierNumber: "C123",
		Status:        models.OrderStatusConfirmed,
	}
	require.NoError(t, svc.db.Create(&order).Error)
	return order
}

func TestProcessOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("RequiresMailer", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewActivationService(db, nil)

		_, err := svc.ProcessOrders(ctx)
		require.Error(t, err)
	})

	t.Run("EndToEnd", func(t *testing.T) {
		db := setupTestDB(t)
		mailer := &stubMailer{}
		svc := NewActivationService(db, mailer)
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }

		member := seedMember(t, svc, "x@example.com")
		order := seedConfirmedOrder(t, svc, member.ID, "prestige", 60)

		summary, err := svc.ProcessOrders(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Processed)
		assert.Zero(t, summary.Failed)

		var updatedOrder models.BankTransferOrder
		require.NoError(t, db.First(&updatedOrder, "id = ?", order.ID).Error)
		assert.Equal(t, models.OrderStatusActivated, updatedOrder.Status)

		var updatedMember models.Profile
		require.NoError(t, db.First(&updatedMember, "id = ?", member.ID).Error)
		assert.Equal(t, "prestige", updatedMember.PlanType)
		assert.Equal(t, "C123", updatedMember.CarrierNumber)
		assert.Equal(t, "54321", updatedMember.TransferLast5Digits)
		require.NotNil(t, updatedMember.VipUntil)
		assert.WithinDuration(t, now.Add(60*24*time.Hour), *updatedMember.VipUntil, time.Second)

		assert.Equal(t, 1, mailer.adminReports)
		assert.Equal(t, 1, mailer.userConfirmations)
		assert.Equal(t, 1, mailer.financeReminders)
	})

	t.Run("PlanDefaultDurations", func(t *testing.T) {
		cases := []struct {
			planCode string
			days     int
		}{
			{"flagship", 30},
			{"prestige", 60},
			{"platinum", 90},
			{"unknown-plan", 30},
		}

		for _, tc := range cases {
			t.Run(tc.planCode, func(t *testing.T) {
				db := setupTestDB(t)
				svc := NewActivationService(db, &stubMailer{})
				now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
				svc.now = func() time.Time { return now }

				member := seedMember(t, svc, "x@example.com")
				seedConfirmedOrder(t, svc, member.ID, tc.planCode, 0)

				_, err := svc.ProcessOrders(ctx)
				require.NoError(t, err)

				var updated models.Profile
				require.NoError(t, db.First(&updated, "id = ?", member.ID).Error)
				require.NotNil(t, updated.VipUntil)
				assert.WithinDuration(t, now.Add(time.Duration(tc.days)*24*time.Hour), *updated.VipUntil, time.Second)
			})
		}
	})

	t.Run("ExplicitDurationWins", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewActivationService(db, &stubMailer{})
		now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }

		member := seedMember(t, svc, "x@example.com")
		seedConfirmedOrder(t, svc, member.ID, "flagship", 45)

		_, err := svc.ProcessOrders(ctx)
		require.NoError(t, err)

		var updated models.Profile
		require.NoError(t, db.First(&updated, "id = ?", member.ID).Error)
		require.NotNil(t, updated.VipUntil)
		assert.WithinDuration(t, now.Add(45*24*time.Hour), *updated.VipUntil, time.Second)
	})

	t.Run("SecondRunProcessesNothing", func(t *testing.T) {
		db := setupTestDB(t)
		mailer := &stubMailer{}
		svc := NewActivationService(db, mailer)

		member := seedMember(t, svc, "x@example.com")
		seedConfirmedOrder(t, svc, member.ID, "flagship", 0)

		first, err := svc.ProcessOrders(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, first.Processed)

		second, err := svc.ProcessOrders(ctx)
		require.NoError(t, err)
		assert.Zero(t, second.Processed)
		assert.Zero(t, second.Total)

		// No duplicate emails either.
		assert.Equal(t, 1, mailer.adminReports)
	})

	t.Run("ClaimedOrderIsSkipped", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewActivationService(db, &stubMailer{})

		member := seedMember(t, svc, "x@example.com")
		order := seedConfirmedOrder(t, svc, member.ID, "flagship", 0)

		// Simulate a concurrent run claiming the order after the snapshot
		// was taken.
		require.NoError(t, db.Model(&models.BankTransferOrder{}).
			Where("id = ?", order.ID).
			Update("status", models.OrderStatusProcessing).Error)

		claimed, err := svc.processOrder(ctx, &order)
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("MailFailureDoesNotFailOrder", func(t *testing.T) {
		db := setupTestDB(t)
		mailer := &stubMailer{err: errStubFailure}
		svc := NewActivationService(db, mailer)

		member := seedMember(t, svc, "x@example.com")
		order := seedConfirmedOrder(t, svc, member.ID, "flagship", 0)

		summary, err := svc.ProcessOrders(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Processed)
		assert.Zero(t, summary.Failed)

		var updated models.BankTransferOrder
		require.NoError(t, db.First(&updated, "id = ?", order.ID).Error)
		assert.Equal(t, models.OrderStatusActivated, updated.Status)
	})

	t.Run("FailedOrderDoesNotAbortBatch", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewActivationService(db, &stubMailer{})

		// First order references a missing profile and fails; the second is
		// healthy and must still activate.
		seedConfirmedOrder(t, svc, uuid.New(), "flagship", 0)
		member := seedMember(t, svc, "ok@example.com")
		good := seedConfirmedOrder(t, svc, member.ID, "prestige", 0)

		summary, err := svc.ProcessOrders(ctx)
		require.Error(t, err)
		assert.Equal(t, 1, summary.Failed)
		assert.Equal(t, 1, summary.Processed)

		var updated models.BankTransferOrder
		require.NoError(t, db.First(&updated, "id = ?", good.ID).Error)
		assert.Equal(t, models.OrderStatusActivated, updated.Status)
	})
}
