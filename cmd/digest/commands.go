package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"market-digest/internal/digest"
	"market-digest/internal/logger"
)

func runOnce(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	runner, err := buildRunner(ctx, cfg)
	if err != nil {
		return err
	}
	return execute(ctx, runner)
}

// execute runs one digest. A gate miss is a clean skip, not a failure.
func execute(ctx context.Context, runner *digest.Runner) error {
	rep, err := runner.Run(ctx)
	if errors.Is(err, digest.ErrOutsideSlot) {
		fmt.Printf("Skipping run: %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info(ctx, "Digest sent", "subject", rep.Subject, "fallback", rep.Narrative.Fallback, "audit", rep.AuditPath)
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	runner, err := buildRunner(ctx, cfg)
	if err != nil {
		return err
	}
	c := cron.New(cron.WithLocation(cfg.Location))
	if _, err := c.AddFunc(cfg.Schedule, func() {
		if err := execute(ctx, runner); err != nil {
			logger.ErrorWithErr(ctx, "Scheduled digest failed", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Schedule, err)
	}

	c.Start()
	logger.Info(ctx, "Digest scheduler started", "schedule", cfg.Schedule, "timezone", cfg.Timezone)

	<-ctx.Done()
	logger.Info(ctx, "Shutting down scheduler...")
	<-c.Stop().Done()
	return nil
}

func snapshot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	runner, err := buildRunner(ctx, cfg)
	if err != nil {
		return err
	}

	b, err := runner.Snapshot(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}
