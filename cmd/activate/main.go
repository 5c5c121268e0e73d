package main

import (
	"context"
	"log"

	"github.com/example/anxin/internal/config"
	"github.com/example/anxin/internal/database"
	"github.com/example/anxin/internal/services"
)

// One-shot activation run for external schedulers. A batch with any failed
// order exits non-zero so the scheduler can alert without per-order detail.
func main() {
	cfg := config.Load()

	if !cfg.HasMailCredentials() {
		log.Fatal("SMTP_USERNAME and SMTP_PASSWORD must be set")
	}

	mailer, err := services.NewMailService(
		cfg.SMTPHost, cfg.SMTPPort,
		cfg.SMTPUsername, cfg.SMTPPassword,
		cfg.AdminEmail, cfg.FinanceEmail, cfg.SiteURL,
	)
	if err != nil {
		log.Fatalf("mail service init failed: %v", err)
	}

	db := database.Connect(cfg.DatabaseURL)

	activation := services.NewActivationService(db, mailer)
	summary, err := activation.ProcessOrders(context.Background())
	if err != nil {
		log.Fatalf("activation run failed: %v", err)
	}

	log.Printf("activation run complete: %d processed, %d skipped", summary.Processed, summary.Skipped)
}
