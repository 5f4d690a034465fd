package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/civica-cloud/agendex/internal/analyzer"
	"github.com/civica-cloud/agendex/internal/config"
	dbRedis "github.com/civica-cloud/agendex/internal/db/redis"
	logpkg "github.com/civica-cloud/agendex/internal/logger"
	"github.com/civica-cloud/agendex/internal/metrics"
	agendarepo "github.com/civica-cloud/agendex/internal/repository/agenda"
	"github.com/civica-cloud/agendex/internal/repository/chunkindex"
	chiTransport "github.com/civica-cloud/agendex/internal/transport/chi"
	openaiEmb "github.com/civica-cloud/agendex/internal/transport/openai"
	searchuc "github.com/civica-cloud/agendex/internal/usecase/search"
	"github.com/civica-cloud/agendex/internal/validator"
	"github.com/civica-cloud/agendex/internal/version"

	agendauc "github.com/civica-cloud/agendex/internal/usecase/agenda"
	healthuc "github.com/civica-cloud/agendex/internal/usecase/health"
	usageuc "github.com/civica-cloud/agendex/internal/usecase/usage"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting agendex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("index_addrs", cfg.ChunkIndex.Addrs),
		zap.String("store_path", cfg.AgendaStore.Path),
	)

	// Chunk index (Redis)
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.ChunkIndex.Addrs,
		Password: cfg.ChunkIndex.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create chunk index store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.ChunkIndex.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Chunk index not ready", zap.Error(err))
	}
	logger.Info("Connected to chunk index")

	// Agenda store (SQLite)
	agendaRepo, err := agendarepo.Open(cfg.AgendaStore.Path)
	if err != nil {
		logger.Fatal("Failed to open agenda store", zap.Error(err))
	}
	defer agendaRepo.Close()

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	indexRepo := chunkindex.New(store, embedder, cfg.ChunkIndex.IndexName, cfg.ChunkIndex.KeyPrefix).
		WithHNSW(chunkindex.HNSWConfig{
			M:           cfg.ChunkIndex.HNSWM,
			EFConstruct: cfg.ChunkIndex.HNSWEFConstruct,
		})

	// Query analyzer: rule-based by default, chat-based when configured.
	var queryAnalyzer searchuc.Analyzer
	switch cfg.Analyzer.Mode {
	case "llm":
		queryAnalyzer = analyzer.NewLLM(&analyzer.LLMConfig{
			APIKey:  cfg.Analyzer.APIKey,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Analyzer.Model,
			Logger:  logger,
		})
	default:
		queryAnalyzer = analyzer.NewRule()
	}
	logger.Info("Analyzer created", zap.String("mode", cfg.Analyzer.Mode))

	// Hint validation is optional; nil disables it entirely.
	var hintValidator searchuc.Validator
	if cfg.Search.ValidateHints {
		hintValidator = validator.New(indexRepo)
	}

	usageSvc := usageuc.New()

	searchSvc := searchuc.New(indexRepo, agendaRepo, queryAnalyzer, hintValidator, usageSvc).
		WithExcludedTypes(cfg.Search.ExcludeAgendaTypes).
		WithSummaryBudget(cfg.Search.SummaryBudget)

	agendaSvc := agendauc.New(agendaRepo).
		WithTopFilters(cfg.Search.ExcludeAgendaTypes, cfg.Search.ExcludeTitlePatterns, cfg.Search.TopMinChunkCount)

	healthSvc := healthuc.New(store, agendaRepo, embedder)

	server := chiTransport.NewServer(searchSvc, agendaSvc, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
