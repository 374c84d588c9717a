package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/auth"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/cache"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/config"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/database"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/telemetry"
	"github.com/claimguard/insurance-fraud-backend/internal/service/claimanalysis"
	"github.com/claimguard/insurance-fraud-backend/internal/service/decisionpolicy"
	"github.com/claimguard/insurance-fraud-backend/internal/service/forensics"
	"github.com/claimguard/insurance-fraud-backend/internal/service/graphanalysis"
	"github.com/claimguard/insurance-fraud-backend/internal/service/riskscoring"
)

// Server owns the HTTP listener and every dependency behind it.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	http   *http.Server
	pool   *database.Pool
	cache  cache.Cache
	policy decisionpolicy.Service
}

// NewServer wires the full dependency graph from configuration. It
// connects to Postgres and Redis eagerly so misconfiguration fails at
// startup rather than on the first request.
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}
	slog.SetDefault(logger)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("creating infrastructure logger: %w", err)
	}

	pool, err := database.NewPool(&cfg.Database, zapLogger)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	repos := database.NewRepositories(pool)

	redisCache, err := cache.NewRedisCache(&cfg.Redis, zapLogger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	assessments := cache.NewAssessmentCache(redisCache, cfg.Redis.TTL, zapLogger)

	authSvc, err := auth.NewService(cfg.Security.JWTSecret, cfg.Security.TokenExpiry)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating auth service: %w", err)
	}

	var extractor forensics.TextExtractor = forensics.NoopExtractor{}
	if cfg.Forensics.TesseractPath != "" {
		extractor = forensics.NewTesseractExtractor(cfg.Forensics.TesseractPath)
	}

	policy, err := decisionpolicy.NewService(cfg.Policy.CheckpointPath, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing decision policy: %w", err)
	}

	analysis := claimanalysis.NewService(claimanalysis.Config{
		Analyzer:   forensics.NewAnalyzer(extractor, logger),
		Engine:     riskscoring.NewEngine(logger),
		Graphs:     graphanalysis.NewService(repos, logger),
		Policy:     policy,
		Claims:     repos.Claims,
		Policies:   repos.Policies,
		Cache:      assessments,
		LayoutSeed: cfg.Policy.LayoutSeed,
		Logger:     logger,
	})

	handler := NewHandler(analysis, policy, repos.Claims, repos.Users, authSvc, logger)

	limiter := newIPRateLimiter(cfg.Security.RateLimit.RequestsPerSecond,
		cfg.Security.RateLimit.BurstSize)

	root := Chain(NewRouter(handler, authSvc),
		requestIDMiddleware,
		loggingMiddleware(logger),
		recoveryMiddleware(logger),
		metricsMiddleware(),
		limiter.Middleware(),
		timeoutMiddleware(cfg.Server.WriteTimeout),
	)

	return &Server{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		cache:  redisCache,
		policy: policy,
		http: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      root,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}, nil
}

// Start serves until SIGINT or SIGTERM, then drains within the
// configured shutdown timeout. The policy retraining scheduler runs
// for the life of the server.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := s.policy.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("policy scheduler stopped", slog.String("error", err.Error()))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	if err := s.cache.Close(); err != nil {
		s.logger.Warn("closing cache", slog.String("error", err.Error()))
	}
	s.pool.Close()
	return nil
}

// Health reports readiness of the backing stores.
func (s *Server) Health(ctx context.Context) error {
	return s.pool.Health(ctx)
}
