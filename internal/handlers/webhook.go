package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/anxin/internal/services"
)

// WebhookHandler receives LINE webhook deliveries. Signature verification
// happens in middleware before this handler runs.
type WebhookHandler struct {
	webhook *services.WebhookService
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(webhook *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhook: webhook}
}

// Handle parses the delivery and dispatches its events. A body that parsed
// is always answered 200 regardless of per-event outcomes, so the platform
// does not redeliver an accepted payload.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	var payload services.WebhookPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		log.Printf("[Webhook] Invalid JSON payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Bad Request",
		})
	}

	h.webhook.ProcessEvents(c.UserContext(), payload.Events)

	return c.JSON(fiber.Map{
		"message": "OK",
	})
}
