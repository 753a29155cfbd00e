package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/analysis"
	"github.com/kailas-cloud/vecnote/internal/anonymize"
	"github.com/kailas-cloud/vecnote/internal/cluster"
	"github.com/kailas-cloud/vecnote/internal/config"
	"github.com/kailas-cloud/vecnote/internal/db"
	dbBolt "github.com/kailas-cloud/vecnote/internal/db/bolt"
	dbRedis "github.com/kailas-cloud/vecnote/internal/db/redis"
	"github.com/kailas-cloud/vecnote/internal/domain"
	logpkg "github.com/kailas-cloud/vecnote/internal/logger"
	"github.com/kailas-cloud/vecnote/internal/metrics"
	budgetrepo "github.com/kailas-cloud/vecnote/internal/repository/budget"
	"github.com/kailas-cloud/vecnote/internal/repository/embcache"
	noterepo "github.com/kailas-cloud/vecnote/internal/repository/note"
	chiTransport "github.com/kailas-cloud/vecnote/internal/transport/chi"
	"github.com/kailas-cloud/vecnote/internal/transport/openai"
	assistantuc "github.com/kailas-cloud/vecnote/internal/usecase/assistant"
	completionuc "github.com/kailas-cloud/vecnote/internal/usecase/completion"
	embeddinguc "github.com/kailas-cloud/vecnote/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vecnote/internal/usecase/health"
	noteuc "github.com/kailas-cloud/vecnote/internal/usecase/note"
	searchuc "github.com/kailas-cloud/vecnote/internal/usecase/search"
	taxonomyuc "github.com/kailas-cloud/vecnote/internal/usecase/taxonomy"
	usageuc "github.com/kailas-cloud/vecnote/internal/usecase/usage"
	"github.com/kailas-cloud/vecnote/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server (default)",
	RunE:  runServe,
}

func loadConfig(env string) (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load(env)
}

func runServe(_ *cobra.Command, _ []string) error {
	env := config.GetEnv()

	cfg, err := loadConfig(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vecnote API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("ai_enabled", cfg.AI.Enabled),
	)

	store, err := openStore(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	metrics.RegisterAIMetrics()

	anon := anonymize.New(logger).WithMetrics(metrics.AnonymizedPlaceholdersTotal)
	ai := buildAI(ctx, cfg, store, logger)

	analyzer := analysis.New(anon, ai.completer, cfg.NoteConfig(), logger)
	repo := noterepo.New(store, cfg.Storage.KeyPrefix)
	loc := cfg.Location()

	svc := chiTransport.Services{
		Notes: noteuc.New(repo, analyzer, ai.docEmbedder, logger).
			WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize).
			WithLocation(loc),
		Search: searchuc.New(repo, analyzer, ai.queryEmbedder, cfg.NoteConfig(), logger).
			WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize).
			WithLocation(loc),
		Assistant:  assistantuc.New(repo, analyzer),
		Taxonomy:   taxonomyuc.New(repo, analyzer, cfg.Clustering.Threshold, cluster.Strategy(cfg.Clustering.Strategy), logger),
		Usage:      usageuc.New(ai.budgetReader),
		Health:     healthuc.New(store, ai.embeddingHealth, ai.completionHealth),
		Anonymizer: anon,
	}

	handler := chiTransport.NewServer(svc, logger).Router(cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func openStore(cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	case config.DriverBolt:
		return dbBolt.NewStore(dbBolt.Config{Path: cfg.Path}, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// aiStack holds the provider-backed collaborators. Every field is a nil
// interface when AI is disabled.
type aiStack struct {
	docEmbedder      domain.Embedder
	queryEmbedder    domain.Embedder
	completer        domain.Completer
	budgetReader     usageuc.BudgetReader
	embeddingHealth  healthuc.ProviderChecker
	completionHealth healthuc.ProviderChecker
}

func buildAI(ctx context.Context, cfg config.Config, store db.Store, logger *zap.Logger) aiStack {
	var stack aiStack
	if !cfg.AI.Enabled {
		logger.Info("AI disabled, using heuristic metadata")
		return stack
	}

	vecCfg := cfg.AI.Vectorizer
	complCfg := cfg.AI.Completion

	// One tracker shared by embeddings, completions and the usage endpoint.
	var budget *embeddinguc.BudgetTracker
	budgetCfg := cfg.AI.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if budgetCfg.Action == string(embeddinguc.BudgetActionReject) {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			vecCfg.Provider, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		).WithKeyPrefix(cfg.Storage.KeyPrefix).WithStore(ctx, budgetrepo.New(store))
		stack.budgetReader = budget
	}

	// A typed nil pointer inside the interface would not compare equal to nil.
	var embBudget embeddinguc.BudgetChecker
	var complBudget completionuc.BudgetChecker
	if budget != nil {
		embBudget = budget
		complBudget = budget
	}

	embProv := cfg.AI.Providers[vecCfg.Provider]
	base := openai.NewEmbedder(&openai.Config{
		APIKey:     embProv.APIKey,
		BaseURL:    embProv.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   vecCfg.Provider,
		Logger:     logger,
	})
	cached := embcache.New(base, store, metrics.EmbeddingCacheTotal, logger).
		WithKeyPrefix(cfg.Storage.KeyPrefix).
		WithTTL(time.Duration(cfg.Storage.EmbeddingCacheTTL) * time.Hour)
	instrumented := embeddinguc.NewInstrumentedEmbedder(cached, vecCfg.Provider, vecCfg.Model, embBudget, logger)

	// The instruction goes outermost so it becomes part of the cache key.
	stack.docEmbedder = withInstruction(instrumented, vecCfg.DocumentInstruction)
	stack.queryEmbedder = withInstruction(instrumented, vecCfg.QueryInstruction)
	stack.embeddingHealth = base

	complProv := cfg.AI.Providers[complCfg.Provider]
	completer := openai.NewCompleter(&openai.CompleterConfig{
		APIKey:      complProv.APIKey,
		BaseURL:     complProv.BaseURL,
		Model:       complCfg.Model,
		Temperature: complCfg.Temperature,
		MaxTokens:   complCfg.MaxTokens,
		Timeout:     time.Duration(complCfg.TimeoutSec) * time.Second,
		Provider:    complCfg.Provider,
		Logger:      logger,
	})
	stack.completer = completionuc.NewRateLimitedCompleter(
		completionuc.NewInstrumentedCompleter(completer, complCfg.Provider, complCfg.Model, complBudget, logger),
		complCfg.RateLimitPerMinute, complCfg.RateBurst,
		time.Duration(complCfg.RateMaxWaitMs)*time.Millisecond,
	)
	stack.completionHealth = completer

	logger.Info("AI providers configured",
		zap.String("embedding_provider", vecCfg.Provider),
		zap.String("embedding_model", vecCfg.Model),
		zap.Int("dimensions", vecCfg.Dimensions),
		zap.String("completion_provider", complCfg.Provider),
		zap.String("completion_model", complCfg.Model),
	)
	return stack
}

func withInstruction(inner domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return inner
	}
	return domain.NewInstructionEmbedder(inner, instruction)
}
