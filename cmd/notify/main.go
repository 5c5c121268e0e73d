package main

import (
	"context"
	"log"
	"time"

	"github.com/example/anxin/internal/config"
	"github.com/example/anxin/internal/database"
	"github.com/example/anxin/internal/services"
)

// One-shot loan-notification run for external schedulers.
func main() {
	cfg := config.Load()

	if cfg.LineChannelAccessToken == "" {
		log.Fatal("LINE_CHANNEL_ACCESS_TOKEN must be set")
	}

	db := database.Connect(cfg.DatabaseURL)
	lineService := services.NewLineService(cfg.LineChannelAccessToken, cfg.SiteURL)

	notifier := services.NewNotifierService(db, lineService, time.Duration(cfg.NotifierWindowHrs)*time.Hour)
	sent, err := notifier.Run(context.Background())
	if err != nil {
		log.Fatalf("notifier run failed: %v", err)
	}

	log.Printf("notifier run complete: %d notifications sent", sent)
}
