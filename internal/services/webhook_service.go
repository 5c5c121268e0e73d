package services

import (
	"context"
	"log"
	"strings"
)

// LineEvent is one entry of a webhook delivery from the LINE platform.
type LineEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Source    struct {
		UserID string `json:"userId"`
	} `json:"source"`
	Message *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message,omitempty"`
	Postback *struct {
		Data string `json:"data"`
	} `json:"postback,omitempty"`
}

// WebhookPayload is the JSON body of a webhook delivery.
type WebhookPayload struct {
	Events []LineEvent `json:"events"`
}

// WebhookService routes parsed webhook events to their handlers.
type WebhookService struct {
	binding *BindingService
	loans   *LoanActionService
	pusher  Pusher
}

// NewWebhookService creates a WebhookService.
func NewWebhookService(binding *BindingService, loans *LoanActionService, pusher Pusher) *WebhookService {
	return &WebhookService{binding: binding, loans: loans, pusher: pusher}
}

// ProcessEvents dispatches each event by kind, in payload order. A failing
// event is logged and never aborts the rest of the batch: the platform must
// not retry an accepted payload because one inner event failed.
func (s *WebhookService) ProcessEvents(ctx context.Context, events []LineEvent) {
	for _, event := range events {
		switch event.Type {
		case "follow":
			if err := s.binding.HandleFollow(ctx, event.Source.UserID); err != nil {
				log.Printf("[Webhook] Follow event for %s failed: %v", event.Source.UserID, err)
			}
		case "postback":
			if event.Postback == nil {
				log.Printf("[Webhook] Postback event without payload from %s", event.Source.UserID)
				continue
			}
			if err := s.loans.ProcessPostback(ctx, event.Source.UserID, event.Postback.Data); err != nil {
				log.Printf("[Webhook] Postback event for %s failed: %v", event.Source.UserID, err)
			}
		case "message":
			s.handleMessage(event)
		default:
			log.Printf("[Webhook] Skipping unhandled event type %q", event.Type)
		}
	}
}

// handleMessage answers free-text messages with button guidance. It changes
// no state.
func (s *WebhookService) handleMessage(event LineEvent) {
	if event.Message == nil {
		return
	}

	text := event.Message.Text
	var reply string
	switch {
	case strings.Contains(text, "結案") || strings.Contains(text, "完成"):
		reply = "您想標記哪個案件為已結案？請點擊通知中的按鈕進行操作。"
	case strings.Contains(text, "拒絕"):
		reply = "您想拒絕哪個案件？請點擊通知中的按鈕進行操作。"
	default:
		reply = "感謝您的消息！若要標記案件的狀態，請點擊通知中的按鈕。"
	}

	if err := s.pusher.Push(event.Source.UserID, reply); err != nil {
		log.Printf("[Webhook] Message reply to %s failed: %v", event.Source.UserID, err)
	}
}
