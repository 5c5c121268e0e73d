package services

import (
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/anxin/internal/models"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A second pooled connection would see an empty :memory: database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	for _, model := range []interface{}{
		&models.Profile{},
		&models.LoanRequest{},
		&models.LenderInteraction{},
		&models.BankTransferOrder{},
		&models.OtpCode{},
		&models.AdminUser{},
	} {
		if err := db.AutoMigrate(model); err != nil {
			t.Fatalf("failed to migrate %T: %v", model, err)
		}
	}

	return db
}

type pushedMessage struct {
	UserID string
	Text   string
}

// stubPusher records outgoing LINE messages.
type stubPusher struct {
	pushed []pushedMessage
	alerts []pushedMessage
	err    error
}

func (p *stubPusher) Push(userID, text string) error {
	p.pushed = append(p.pushed, pushedMessage{UserID: userID, Text: text})
	return p.err
}

func (p *stubPusher) PushLoanAlert(userID string, loan *models.LoanRequest) error {
	p.alerts = append(p.alerts, pushedMessage{UserID: userID, Text: loan.Title})
	return p.err
}

// profileStubPusher additionally answers profile lookups.
type profileStubPusher struct {
	stubPusher
	name       string
	profileErr error
}

func (p *profileStubPusher) GetProfile(userID string) (*LineProfile, error) {
	if p.profileErr != nil {
		return nil, p.profileErr
	}
	return &LineProfile{UserID: userID, DisplayName: p.name}, nil
}

// stubMailer records send attempts per email kind.
type stubMailer struct {
	adminReports      int
	userConfirmations int
	financeReminders  int
	bindingEmails     []string
	otpEmails         map[string]string
	err               error
}

func (m *stubMailer) SendAdminReport(order *models.BankTransferOrder, profile *models.Profile) error {
	m.adminReports++
	return m.err
}

func (m *stubMailer) SendUserConfirmation(order *models.BankTransferOrder, profile *models.Profile, vipUntil time.Time) error {
	m.userConfirmations++
	return m.err
}

func (m *stubMailer) SendFinanceReminder(order *models.BankTransferOrder, profile *models.Profile) error {
	m.financeReminders++
	return m.err
}

func (m *stubMailer) SendBindingConfirmation(toEmail string) error {
	m.bindingEmails = append(m.bindingEmails, toEmail)
	return m.err
}

func (m *stubMailer) SendOtpCode(toEmail, code string, validFor time.Duration) error {
	if m.otpEmails == nil {
		m.otpEmails = make(map[string]string)
	}
	m.otpEmails[toEmail] = code
	return m.err
}

var errStubFailure = errors.New("stub failure")
