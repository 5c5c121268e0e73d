package services

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/example/anxin/internal/models"
)

const (
	welcomeMessage = "感謝您關注安心借貸網官方帳號！我們會定期為您推送新的借款案件。"

	bindingSuccessMessage = "✅ 綁定成功！\n\n你已成功綁定安心借貸網官方帳號。\n\n從現在起，每當有新的借款案件時，我們會第一時間通知你。\n\n祝你投資愉快！"
)

// BindingService associates LINE user ids with member profiles when a
// member follows the official account.
type BindingService struct {
	db                *gorm.DB
	pusher            Pusher
	mailer            Mailer
	officialAccountID string
	now               func() time.Time
}

// NewBindingService creates a BindingService. mailer may be nil when SMTP
// is not configured; the confirmation email is skipped in that case.
func NewBindingService(db *gorm.DB, pusher Pusher, mailer Mailer, officialAccountID string) *BindingService {
	return &BindingService{
		db:                db,
		pusher:            pusher,
		mailer:            mailer,
		officialAccountID: officialAccountID,
		now:               time.Now,
	}
}

// FindUnboundCandidate returns the single profile eligible for auto-binding:
// line_id equals the official account id and line_user_id is still unset.
// Zero candidates means nobody to bind. Two or more means auto-binding would
// be a guess, so nothing is returned and the ambiguity is logged for manual
// resolution.
func (s *BindingService) FindUnboundCandidate(ctx context.Context) (*models.Profile, error) {
	var candidates []models.Profile
	if err := s.db.WithContext(ctx).
		Where("line_id = ? AND line_user_id IS NULL", s.officialAccountID).
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return &candidates[0], nil
	default:
		log.Printf("[Binding] Found %d unbound profiles for %s; cannot auto-bind without email verification",
			len(candidates), s.officialAccountID)
		return nil, nil
	}
}

// Bind links a profile to a LINE user id and fires the confirmation
// notifications. Both notifications are best-effort: their failure never
// rolls back the binding.
func (s *BindingService) Bind(ctx context.Context, profile *models.Profile, lineUserID string) error {
	boundAt := s.now().UTC()
	updates := map[string]any{
		"line_user_id":        lineUserID,
		"line_binding_status": models.BindingStatusLinked,
		"line_binding_at":     boundAt,
	}

	// Best effort; a bind must not depend on the profile endpoint.
	if name := s.fetchDisplayName(lineUserID); name != "" {
		updates["line_display_name"] = name
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", profile.ID).
		Updates(updates).Error; err != nil {
		return err
	}

	log.Printf("[Binding] Profile %s bound to LINE user %s", profile.ID, lineUserID)

	if profile.Email != "" && s.mailer != nil {
		if err := s.mailer.SendBindingConfirmation(profile.Email); err != nil {
			log.Printf("[Binding] Confirmation email to %s failed: %v", profile.Email, err)
		}
	}

	if err := s.pusher.Push(lineUserID, bindingSuccessMessage); err != nil {
		log.Printf("[Binding] Confirmation push to %s failed: %v", lineUserID, err)
	}

	return nil
}

// fetchDisplayName asks the Messaging API for the follower's display name
// when the pusher can do profile lookups. Failures are logged and ignored.
func (s *BindingService) fetchDisplayName(lineUserID string) string {
	getter, ok := s.pusher.(ProfileGetter)
	if !ok {
		return ""
	}

	lineProfile, err := getter.GetProfile(lineUserID)
	if err != nil {
		log.Printf("[Binding] Profile lookup for %s failed: %v", lineUserID, err)
		return ""
	}
	return lineProfile.DisplayName
}

// HandleFollow runs the auto-binding flow for a follow event. When no
// unbound candidate exists, the follower still gets a welcome message.
func (s *BindingService) HandleFollow(ctx context.Context, lineUserID string) error {
	log.Printf("[Binding] Follow event from LINE user %s", lineUserID)

	candidate, err := s.FindUnboundCandidate(ctx)
	if err != nil {
		return err
	}

	if candidate == nil {
		if err := s.pusher.Push(lineUserID, welcomeMessage); err != nil {
			log.Printf("[Binding] Welcome push to %s failed: %v", lineUserID, err)
		}
		return nil
	}

	return s.Bind(ctx, candidate, lineUserID)
}
