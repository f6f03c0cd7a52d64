package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"stocksent/internal/adapters/config"
	"stocksent/internal/adapters/errors/noop"
	"stocksent/internal/adapters/errors/sentry"
	"stocksent/internal/adapters/oracle"
	"stocksent/internal/domain/social"
	"stocksent/internal/metrics"
	"stocksent/internal/repository/csvfile"
	"stocksent/internal/services/pipeline"
	"stocksent/internal/services/sentiment"
	"stocksent/internal/services/symbols"
	"stocksent/pkg/errors"
	"stocksent/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr, log)
	}

	// Cancel the run on SIGINT/SIGTERM; in-flight oracle calls finish,
	// nothing new is consumed.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	if err := p.Execute(ctx, cfg.Files.Posts, cfg.Files.Output); err != nil {
		errorTracker.Flush(context.Background())
		log.Fatalf("Pipeline failed: %v", err)
	}

	errorTracker.Flush(context.Background())
}

// buildPipeline wires repositories, the validator, the oracle adapter and
// the stream processor into a runnable pipeline.
func buildPipeline(ctx context.Context, cfg *config.Config, log *logger.Logger) (*pipeline.Pipeline, error) {
	oracleClient, err := buildOracle(ctx, cfg)
	if err != nil {
		return nil, err
	}

	symbolRepo := csvfile.NewSymbolRepository(cfg.Files.Symbols, log)
	userRepo := csvfile.NewUserRepository(cfg.Files.Owners, cfg.Files.Gains, log)
	validator := symbols.NewValidator(symbolRepo)
	engine := sentiment.NewEngine(oracleClient, validator, log, cfg.Analyzer.MaxAbsSentiment)
	processor := sentiment.NewProcessor(engine, cfg.Analyzer.MaxParallelism, log,
		sentiment.WithProgressEvery(cfg.Analyzer.ProgressEvery),
		sentiment.WithCountSkipped(cfg.Analyzer.CountSkipped),
	)

	return pipeline.New(userRepo, processor, log), nil
}

func buildOracle(ctx context.Context, cfg *config.Config) (social.Oracle, error) {
	timeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	limiter := oracle.NewLimiter(cfg.AI.Provider, cfg.AI.RequestsPerMinute)

	switch cfg.AI.Provider {
	case "openai":
		return oracle.NewOpenAIClient(cfg.AI.OpenAIKey, cfg.AI.OpenAIModel, cfg.AI.OpenAIBaseURL, timeout, limiter)
	case "gemini":
		return oracle.NewGeminiClient(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiModel, timeout, limiter)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown AI provider %q", cfg.AI.Provider)
	}
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

func serveMetrics(addr string, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.Infof("Metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("Metrics server stopped: %v", err)
	}
}
