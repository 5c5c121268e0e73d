package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/anxin/internal/models"
)

func TestPushWithoutToken(t *testing.T) {
	svc := NewLineService("", "https://axnihao.com")

	t.Run("PushFails", func(t *testing.T) {
		assert.Error(t, svc.Push("U-1", "hello"))
	})

	t.Run("PushLoanAlertFails", func(t *testing.T) {
		loan := &models.LoanRequest{ID: 1, Title: "週轉金", Amount: 50000}
		assert.Error(t, svc.PushLoanAlert("U-1", loan))
	})

	t.Run("GetProfileFails", func(t *testing.T) {
		_, err := svc.GetProfile("U-1")
		assert.Error(t, err)
	})
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount   int64
		expected string
	}{
		{0, "0"},
		{5, "5"},
		{999, "999"},
		{1000, "1,000"},
		{50000, "50,000"},
		{1234567, "1,234,567"},
		{-123, "-123"},
		{-1234567, "-1,234,567"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, FormatAmount(tc.amount))
	}
}
