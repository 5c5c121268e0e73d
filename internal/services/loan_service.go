package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/example/anxin/internal/models"
)

// Errors surfaced by postback processing. Each aborts only the event that
// produced it.
var (
	ErrMalformedPostback = errors.New("malformed postback data")
	ErrUnknownAction     = errors.New("unknown postback action")
	ErrLenderNotFound    = errors.New("no lender matches line user")
	ErrAmbiguousLender   = errors.New("multiple lenders match line user")
	ErrLoanNotFound      = errors.New("loan request not found")
)

// Loan status transitions a lender may trigger from a notification button.
var postbackActionStatus = map[string]string{
	"completed": models.LoanStatusCompleted,
	"rejected":  models.LoanStatusRejected,
}

// LoanActionService applies lender postback actions to loan requests.
type LoanActionService struct {
	db     *gorm.DB
	pusher Pusher
	now    func() time.Time
}

// NewLoanActionService creates a LoanActionService.
func NewLoanActionService(db *gorm.DB, pusher Pusher) *LoanActionService {
	return &LoanActionService{db: db, pusher: pusher, now: time.Now}
}

// ProcessPostback parses a postback data string ("action=...&loan_id=..."),
// validates the action, resolves the acting lender, applies the status
// transition, appends an audit record and pushes a confirmation reply.
// Unknown actions and unresolvable lenders change no state and send no
// reply.
func (s *LoanActionService) ProcessPostback(ctx context.Context, lineUserID, data string) error {
	params, err := parsePostbackData(data)
	if err != nil {
		return err
	}

	action := params["action"]
	newStatus, ok := postbackActionStatus[action]
	if !ok {
		log.Printf("[Loan] Unknown postback action %q from %s", action, lineUserID)
		return ErrUnknownAction
	}

	loanID, err := strconv.ParseUint(params["loan_id"], 10, 32)
	if err != nil {
		return fmt.Errorf("%w: loan_id %q is not an integer", ErrMalformedPostback, params["loan_id"])
	}

	lender, err := s.resolveLender(ctx, lineUserID)
	if err != nil {
		return err
	}

	if err := s.applyTransition(ctx, uint(loanID), newStatus, lender, lineUserID, action); err != nil {
		return err
	}

	reply := fmt.Sprintf("✅ 案件 #%d 已標記為已結案\n\n感謝您的配合！", loanID)
	if action == "rejected" {
		reply = fmt.Sprintf("❌ 案件 #%d 已標記為拒絕\n\n感謝您的反饋！", loanID)
	}
	if err := s.pusher.Push(lineUserID, reply); err != nil {
		log.Printf("[Loan] Confirmation reply to %s failed: %v", lineUserID, err)
	}

	return nil
}

// resolveLender matches a LINE user against either identifier column. The
// original system silently took the first row when both columns matched
// different profiles; that was a guess, so duplicates are an explicit error
// here.
func (s *LoanActionService) resolveLender(ctx context.Context, lineUserID string) (*models.Profile, error) {
	var lenders []models.Profile
	if err := s.db.WithContext(ctx).
		Where("line_id = ? OR line_user_id = ?", lineUserID, lineUserID).
		Limit(2).
		Find(&lenders).Error; err != nil {
		return nil, err
	}

	switch len(lenders) {
	case 0:
		log.Printf("[Loan] No lender found for LINE user %s", lineUserID)
		return nil, ErrLenderNotFound
	case 1:
		return &lenders[0], nil
	default:
		log.Printf("[Loan] Multiple lenders match LINE user %s; refusing to act", lineUserID)
		return nil, ErrAmbiguousLender
	}
}

func (s *LoanActionService) applyTransition(ctx context.Context, loanID uint, newStatus string, lender *models.Profile, lineUserID, action string) error {
	res := s.db.WithContext(ctx).
		Model(&models.LoanRequest{}).
		Where("id = ?", loanID).
		Update("status", newStatus)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrLoanNotFound, loanID)
	}

	notes, _ := json.Marshal(map[string]string{
		"line_user_id": lineUserID,
		"action":       action,
	})

	interaction := models.LenderInteraction{
		LenderID:         lender.ID,
		RequestID:        loanID,
		InteractionType:  newStatus,
		InteractionDate:  s.now().UTC(),
		InteractionNotes: string(notes),
	}
	if err := s.db.WithContext(ctx).Create(&interaction).Error; err != nil {
		return err
	}

	log.Printf("[Loan] Request #%d updated to %s by lender %s", loanID, newStatus, lender.ID)
	return nil
}

// parsePostbackData parses the flat "k1=v1&k2=v2" postback encoding. Pairs
// without exactly one "=" are rejected rather than skipped.
func parsePostbackData(data string) (map[string]string, error) {
	if strings.TrimSpace(data) == "" {
		return nil, fmt.Errorf("%w: empty data", ErrMalformedPostback)
	}

	params := make(map[string]string)
	for _, pair := range strings.Split(data, "&") {
		parts := strings.Split(pair, "=")
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("%w: bad pair %q", ErrMalformedPostback, pair)
		}
		params[parts[0]] = parts[1]
	}

	for _, required := range []string{"action", "loan_id"} {
		if _, ok := params[required]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrMalformedPostback, required)
		}
	}

	return params, nil
}
