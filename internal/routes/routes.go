package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/anxin/internal/config"
	"github.com/example/anxin/internal/handlers"
	"github.com/example/anxin/internal/middleware"
	"github.com/example/anxin/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	lineService := services.NewLineService(cfg.LineChannelAccessToken, cfg.SiteURL)

	var mailer services.Mailer
	if cfg.HasMailCredentials() {
		mailService, err := services.NewMailService(
			cfg.SMTPHost, cfg.SMTPPort,
			cfg.SMTPUsername, cfg.SMTPPassword,
			cfg.AdminEmail, cfg.FinanceEmail, cfg.SiteURL,
		)
		if err != nil {
			log.Printf("mail service unavailable: %v", err)
		} else {
			mailer = mailService
		}
	} else {
		log.Println("[Mail] SMTP credentials not configured; email notifications disabled")
	}

	bindingService := services.NewBindingService(db, lineService, mailer, cfg.LineOfficialAccountID)
	loanService := services.NewLoanActionService(db, lineService)
	webhookService := services.NewWebhookService(bindingService, loanService, lineService)
	otpService := services.NewOtpService(db, mailer)

	webhookHandler := handlers.NewWebhookHandler(webhookService)
	otpHandler := handlers.NewOtpHandler(otpService)
	adminHandler := handlers.NewAdminHandler(db, cfg, bindingService)

	api := app.Group("/api")

	// LINE webhook; the signature gate runs before the body is parsed.
	api.Post("/line/webhook", middleware.LineSignatureMiddleware(cfg.LineChannelSecret), webhookHandler.Handle)

	// Email OTP for manual binding resolution
	otp := api.Group("/otp")
	otp.Post("/send", otpHandler.Send)
	otp.Post("/verify", otpHandler.Verify)

	// Back-office routes
	admin := api.Group("/admin")
	admin.Post("/login", adminHandler.Login)

	protected := admin.Group("", middleware.AdminAuthMiddleware(cfg))
	protected.Get("/orders", adminHandler.ListOrders)
	protected.Put("/orders/:id/confirm", adminHandler.ConfirmOrder)
	protected.Get("/interactions", adminHandler.ListInteractions)
	protected.Post("/bindings", adminHandler.CreateBinding)
}
