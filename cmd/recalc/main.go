package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"

	"github.com/keyquest/keyquest/internal/app"
	"github.com/keyquest/keyquest/internal/config"
	"github.com/keyquest/keyquest/internal/platform/logging"
	"github.com/keyquest/keyquest/internal/usecase"
)

func main() {
	var (
		users   = flag.String("users", "", "comma-separated user ids; empty recalculates everyone")
		workers = flag.Int("workers", 0, "worker pool size; 0 uses RECALC_MAX_WORKERS")
		dryRun  = flag.Bool("dry-run", false, "compute totals without writing them back")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	maxWorkers := *workers
	if maxWorkers <= 0 {
		maxWorkers = cfg.RecalcMaxWorkers
	}

	result, err := app.RunRecalcJob(ctx, cfg, logger, usecase.RecalcInput{
		UserIDs:    splitUserIDs(*users),
		MaxWorkers: maxWorkers,
		DryRun:     *dryRun,
	})
	if err != nil {
		logger.Error("recalculation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("recalculation finished",
		"users", result.UserCount,
		"succeeded", result.SuccessCount,
		"failed", result.FailedCount,
		"changed", result.ChangedCount,
		"dry_run", result.DryRun,
	)

	out, err := sonic.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if result.FailedCount > 0 {
		os.Exit(1)
	}
}

func splitUserIDs(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
