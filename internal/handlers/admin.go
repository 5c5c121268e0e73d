package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/anxin/internal/config"
	"github.com/example/anxin/internal/middleware"
	"github.com/example/anxin/internal/models"
	"github.com/example/anxin/internal/services"
	"github.com/example/anxin/internal/utils"
)

// AdminHandler serves the back-office API: operator login, order review,
// audit listings and manual binding resolution.
type AdminHandler struct {
	db      *gorm.DB
	cfg     *config.Config
	binding *services.BindingService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(db *gorm.DB, cfg *config.Config, binding *services.BindingService) *AdminHandler {
	return &AdminHandler{db: db, cfg: cfg, binding: binding}
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an operator and issues a JWT.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req adminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
	}

	var admin models.AdminUser
	if err := h.db.Where("email = ?", req.Email).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(admin.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, admin.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to issue token")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"admin": admin,
	})
}

// ListOrders returns bank transfer orders, newest first, optionally
// filtered by status. Orders stuck in processing after a crashed activation
// run show up here for operator attention.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	query := h.db.Model(&models.BankTransferOrder{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.BankTransferOrder
	if err := query.
		Order("created_at DESC").
		Limit(pagination.Limit).
		Offset(pagination.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"orders": orders,
		"total":  total,
		"page":   pagination.Page,
		"limit":  pagination.Limit,
	})
}

type confirmOrderRequest struct {
	ReviewNote string `json:"review_note"`
}

// ConfirmOrder is the reviewer action: it moves a pending order to
// confirmed and records the review metadata. The activation workflow picks
// the order up from there.
func (h *AdminHandler) ConfirmOrder(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var req confirmOrderRequest
	_ = c.BodyParser(&req)

	adminID, _ := middleware.GetCurrentAdminID(c)

	var order models.BankTransferOrder
	if err := h.db.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	if order.Status != models.OrderStatusPending {
		return fiber.NewError(fiber.StatusConflict, "order is not pending review")
	}

	now := time.Now().UTC()
	if err := h.db.Model(&models.BankTransferOrder{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(map[string]any{
			"status":      models.OrderStatusConfirmed,
			"reviewed_by": adminID.String(),
			"reviewed_at": now,
			"review_note": req.ReviewNote,
		}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "order confirmed", "order_id": orderID})
}

// ListInteractions returns the lender audit log, newest first.
func (h *AdminHandler) ListInteractions(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	query := h.db.Model(&models.LenderInteraction{})
	if t := c.Query("type"); t != "" {
		query = query.Where("interaction_type = ?", t)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var interactions []models.LenderInteraction
	if err := query.
		Order("interaction_date DESC").
		Limit(pagination.Limit).
		Offset(pagination.Offset).
		Find(&interactions).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"interactions": interactions,
		"total":        total,
		"page":         pagination.Page,
		"limit":        pagination.Limit,
	})
}

type createBindingRequest struct {
	ProfileID  string `json:"profile_id"`
	LineUserID string `json:"line_user_id"`
}

// CreateBinding manually binds a profile to a LINE user id. This is the
// resolution path when several unbound profiles made auto-binding
// ambiguous; the operator verifies the member (e.g. via email OTP) first.
func (h *AdminHandler) CreateBinding(c *fiber.Ctx) error {
	var req createBindingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	profileID, err := uuid.Parse(req.ProfileID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid profile id")
	}
	if req.LineUserID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "line_user_id is required")
	}

	var profile models.Profile
	if err := h.db.First(&profile, "id = ?", profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "profile not found")
		}
		return err
	}

	if profile.LineUserID != nil && *profile.LineUserID != "" {
		return fiber.NewError(fiber.StatusConflict, "profile is already bound")
	}

	if err := h.binding.Bind(c.UserContext(), &profile, req.LineUserID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "binding created", "profile_id": profileID})
}
