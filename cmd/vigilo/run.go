package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigilo/internal/batch"
	"github.com/ternarybob/vigilo/internal/browser"
	"github.com/ternarybob/vigilo/internal/common"
	"github.com/ternarybob/vigilo/internal/detector"
	"github.com/ternarybob/vigilo/internal/interfaces"
	"github.com/ternarybob/vigilo/internal/scheduler"
	"github.com/ternarybob/vigilo/internal/scraper"
	badgerstore "github.com/ternarybob/vigilo/internal/storage/badger"
)

// run opens storage, wires the pipeline, and dispatches on mode: history and
// maintenance flags are read-only commands, otherwise a batch runs once or on
// the configured schedule.
func run(config *common.Config, logger arbor.ILogger) error {
	db, err := badgerstore.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer db.Close()

	changes := badgerstore.NewChangeStorage(db, logger)
	orgs := badgerstore.NewOrganizationStorage(db, logger)

	ctx := context.Background()

	if *deactivate != "" {
		return orgs.Deactivate(ctx, *deactivate)
	}
	if *showHistory {
		return printHistory(ctx, changes)
	}

	if err := orgs.SeedFromConfig(ctx, config.Organizations); err != nil {
		return fmt.Errorf("failed to seed tracked organizations: %w", err)
	}

	sessions := browser.NewManager(config, logger)
	crawler := scraper.NewCrawler(config, logger)
	det := detector.NewDetector(changes, logger)
	orchestrator := batch.NewOrchestrator(config, sessions, crawler, det, changes, orgs, logger)

	if *watchMode || config.Schedule.Enabled {
		return runScheduled(config, orchestrator, logger)
	}

	summary, err := orchestrator.Run(ctx)
	if err != nil {
		return err
	}

	for _, result := range summary.Results {
		logger.Info().
			Str("organization", result.Organization).
			Int("members_seen", result.MembersSeen).
			Int("events_persisted", result.EventsPersisted).
			Bool("failed", result.Failed).
			Msg("Batch result")
	}

	return nil
}

// runScheduled starts the cron scheduler and blocks until an interrupt.
func runScheduled(config *common.Config, orchestrator *batch.Orchestrator, logger arbor.ILogger) error {
	svc := scheduler.NewService(orchestrator, logger)
	if err := svc.Start(config.Schedule.Cron); err != nil {
		return err
	}

	logger.Info().Str("schedule", config.Schedule.Cron).Msg("Watching on schedule - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received")
	svc.Stop()
	return nil
}

// printHistory writes stored change events to stdout, newest first.
func printHistory(ctx context.Context, changes interfaces.ChangeStorage) error {
	events, err := changes.ListChanges(ctx, interfaces.ChangeFilter{
		Organization: *orgFilter,
		Limit:        *historyLimit,
	})
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Println("No change events recorded")
		return nil
	}

	for _, event := range events {
		kind := "role change"
		detail := fmt.Sprintf("%s -> %s", event.OldRole, event.NewRole)
		if event.IsNew {
			kind = "new member"
			detail = event.NewRole
		}
		fmt.Printf("%s  %-12s %s @ %s: %s\n",
			event.ChangeDate.Format("2006-01-02 15:04"), kind, event.Name, event.Organization, detail)
	}

	total, err := changes.CountChanges(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\n%d of %d recorded change events shown\n", len(events), total)
	return nil
}
