package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/example/anxin/internal/config"
	"github.com/example/anxin/internal/database"
	"github.com/example/anxin/internal/routes"
	"github.com/example/anxin/internal/services"
)

func main() {
	cfg := config.Load()

	if cfg.LineChannelSecret == "" {
		log.Fatal("LINE_CHANNEL_SECRET must be set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	db := database.Connect(cfg.DatabaseURL)

	app := fiber.New(fiber.Config{
		AppName: "Anxin Back Office",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, cfg)

	if cfg.EnableScheduler {
		startScheduler(cfg, db)
	}

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}

// startScheduler runs the activation and loan-notifier batches in-process.
// Deployments that trigger cmd/activate and cmd/notify externally leave
// ENABLE_SCHEDULER off.
func startScheduler(cfg *config.Config, db *gorm.DB) {
	if cfg.LineChannelAccessToken == "" {
		log.Fatal("ENABLE_SCHEDULER requires LINE_CHANNEL_ACCESS_TOKEN")
	}

	lineService := services.NewLineService(cfg.LineChannelAccessToken, cfg.SiteURL)

	c := cron.New()

	if cfg.HasMailCredentials() {
		mailer, err := services.NewMailService(
			cfg.SMTPHost, cfg.SMTPPort,
			cfg.SMTPUsername, cfg.SMTPPassword,
			cfg.AdminEmail, cfg.FinanceEmail, cfg.SiteURL,
		)
		if err != nil {
			log.Fatalf("mail service init failed: %v", err)
		}

		activation := services.NewActivationService(db, mailer)
		if _, err := c.AddFunc(cfg.ActivationSchedule, func() {
			if _, err := activation.ProcessOrders(context.Background()); err != nil {
				log.Printf("[Scheduler] Activation run failed: %v", err)
			}
		}); err != nil {
			log.Fatalf("invalid ACTIVATION_SCHEDULE: %v", err)
		}
	} else {
		log.Println("[Scheduler] SMTP credentials missing; activation schedule disabled")
	}

	notifier := services.NewNotifierService(db, lineService, time.Duration(cfg.NotifierWindowHrs)*time.Hour)
	if _, err := c.AddFunc(cfg.NotifierSchedule, func() {
		if _, err := notifier.Run(context.Background()); err != nil {
			log.Printf("[Scheduler] Notifier run failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("invalid NOTIFIER_SCHEDULE: %v", err)
	}

	c.Start()
	log.Println("[Scheduler] Started")
}
