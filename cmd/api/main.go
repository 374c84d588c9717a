package main

import (
	"context"
	"log"

	"github.com/claimguard/insurance-fraud-backend/internal/api/rest"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/config"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	telConfig := telemetry.DefaultConfig()
	telConfig.ServiceVersion = cfg.Version
	telConfig.Environment = cfg.Environment
	telConfig.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	telConfig.Enabled = cfg.Telemetry.Enabled
	telConfig.SamplingRate = cfg.Telemetry.SampleRate

	provider, err := telemetry.Initialize(ctx, telConfig)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := provider.Shutdown(ctx); err != nil {
			log.Printf("Failed to shutdown telemetry: %v", err)
		}
	}()

	server, err := rest.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
