package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/config"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/telemetry"
	"github.com/claimguard/insurance-fraud-backend/internal/service/decisionpolicy"
)

// Command-line flags
var (
	mode       = flag.String("mode", "train", "Operation mode: train, schedule, inspect")
	checkpoint = flag.String("checkpoint", "", "Checkpoint path (overrides configuration)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		slog.Error("failed to configure logger", "error", err)
		os.Exit(1)
	}

	path := cfg.Policy.CheckpointPath
	if *checkpoint != "" {
		path = *checkpoint
	}

	// Loads the checkpoint, or bootstrap-trains a fresh policy when none
	// exists yet.
	policy, err := decisionpolicy.NewService(path, logger)
	if err != nil {
		logger.Error("failed to initialize decision policy", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "train":
		err = runTrain(ctx, policy, logger)
	case "schedule":
		err = policy.Run(ctx)
		if ctx.Err() != nil {
			err = nil
		}
	case "inspect":
		err = runInspect(path, policy)
	default:
		err = fmt.Errorf("unknown mode: %s", *mode)
	}

	if err != nil {
		logger.Error("operation failed", "error", err)
		os.Exit(1)
	}
}

// runTrain executes one full training pass and reports the published
// version.
func runTrain(ctx context.Context, policy decisionpolicy.Service, logger *slog.Logger) error {
	started := time.Now()
	if err := policy.Train(ctx); err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	logger.Info("training completed",
		"version", policy.Version(),
		"elapsed", time.Since(started))
	return nil
}

// runInspect prints checkpoint summary information.
func runInspect(path string, policy decisionpolicy.Service) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading checkpoint: %w", err)
	}

	fmt.Printf("Checkpoint: %s\n", path)
	fmt.Printf("Size: %d bytes\n", info.Size())
	fmt.Printf("Modified: %s\n", info.ModTime().Format(time.RFC3339))
	fmt.Printf("Published version: %d\n", policy.Version())
	return nil
}
