package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/anxin/internal/services"
)

// OtpHandler exposes email OTP issue and verification endpoints.
type OtpHandler struct {
	otp *services.OtpService
}

// NewOtpHandler constructs an OtpHandler.
func NewOtpHandler(otp *services.OtpService) *OtpHandler {
	return &OtpHandler{otp: otp}
}

type otpSendRequest struct {
	Email string `json:"email"`
}

type otpVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Send issues a fresh verification code to the given email.
func (h *OtpHandler) Send(c *fiber.Ctx) error {
	var req otpSendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email is required")
	}

	if err := h.otp.Send(c.UserContext(), req.Email); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to send otp")
	}

	return c.JSON(fiber.Map{"message": "OTP sent"})
}

// Verify validates a submitted code.
func (h *OtpHandler) Verify(c *fiber.Ctx) error {
	var req otpVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and code are required")
	}

	err := h.otp.Verify(c.UserContext(), req.Email, req.Code)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"message": "OTP verified successfully", "email": req.Email})
	case errors.Is(err, services.ErrOtpNotFound):
		return fiber.NewError(fiber.StatusUnauthorized, "OTP not found or expired")
	case errors.Is(err, services.ErrOtpMaxAttempts):
		return fiber.NewError(fiber.StatusUnauthorized, "maximum verification attempts exceeded")
	case errors.Is(err, services.ErrOtpMismatch):
		return fiber.NewError(fiber.StatusUnauthorized, "invalid OTP code")
	default:
		return err
	}
}
