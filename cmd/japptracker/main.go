// Command japptracker processes a batch of unread Gmail messages, extracts
// job-application details from the relevant ones, and reconciles them into a
// Notion database. It runs once and exits; schedule it externally (cron,
// launchd) for continuous tracking.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThamerD/JappTracker/internal/config"
	"github.com/ThamerD/JappTracker/internal/gmail"
	"github.com/ThamerD/JappTracker/internal/notion"
	"github.com/ThamerD/JappTracker/internal/openai"
	"github.com/ThamerD/JappTracker/internal/service"
	"github.com/ThamerD/JappTracker/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "japptracker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mailClient, err := gmail.NewClient(ctx, cfg.GmailCredentialsFile, cfg.GmailTokenFile)
	if err != nil {
		return fmt.Errorf("gmail: %w", err)
	}

	nluClient := openai.NewClient(cfg.OpenAIAPIKey)
	store := notion.NewClient(cfg.NotionAPIKey, cfg.NotionDatabaseID)

	extractor := service.NewExtractor(nluClient, log)
	reconciler := service.NewReconciler(store, log)
	pipeline := service.NewPipeline(mailClient, extractor, reconciler, log)

	summary, err := pipeline.Run(ctx, cfg.MaxEmails)
	if err != nil {
		return err
	}

	fmt.Printf("processed %d message(s): %d created, %d updated, %d skipped, %d failed\n",
		summary.Processed, summary.Created, summary.Updated, summary.Skipped, summary.Failed)

	if summary.Failed > 0 {
		log.Warn("some messages failed and remain unread for the next run",
			"failed", summary.Failed)
	}

	return nil
}
