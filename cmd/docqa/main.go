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

	"github.com/kailas-cloud/docqa/internal/config"
	"github.com/kailas-cloud/docqa/internal/db"
	dbRedis "github.com/kailas-cloud/docqa/internal/db/redis"
	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/chunk"
	"github.com/kailas-cloud/docqa/internal/domain/principal"
	"github.com/kailas-cloud/docqa/internal/domain/source"
	"github.com/kailas-cloud/docqa/internal/extract"
	"github.com/kailas-cloud/docqa/internal/extract/docx"
	"github.com/kailas-cloud/docqa/internal/extract/pdf"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/metrics"
	chatrepo "github.com/kailas-cloud/docqa/internal/repository/chat"
	"github.com/kailas-cloud/docqa/internal/repository/chunkstore"
	"github.com/kailas-cloud/docqa/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/docqa/internal/transport/chi"
	openaiProv "github.com/kailas-cloud/docqa/internal/transport/openai"
	answeruc "github.com/kailas-cloud/docqa/internal/usecase/answer"
	chatuc "github.com/kailas-cloud/docqa/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/docqa/internal/usecase/embedding"
	generationuc "github.com/kailas-cloud/docqa/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
	modulesuc "github.com/kailas-cloud/docqa/internal/usecase/modules"
	"github.com/kailas-cloud/docqa/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docqa API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("data_dir", cfg.Storage.RootDir),
	)

	// valkey speaks the Redis protocol, both drivers share the rueidis store
	var store db.Store
	switch cfg.Database.Driver {
	case "valkey", "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterProviderMetrics()
	metrics.RegisterPipelineMetrics()

	embedder, embeddingHealth := buildEmbedder(cfg, store, logger)
	generator := buildGenerator(cfg, logger)
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("generation_model", cfg.Generation.Model),
		zap.Bool("embedding_cache", cfg.Embedding.Cache.Enabled),
	)

	chunks := chunkstore.New(cfg.Storage.RootDir, logger.Named("chunkstore"))

	extractors := extract.NewRegistry()
	extractors.Register(source.PDF, pdf.New())
	extractors.Register(source.DOCX, docx.New())

	params := chunk.Params{MaxSize: cfg.Chunking.MaxSize, Overlap: cfg.Chunking.Overlap}

	server := chiTransport.NewServer(chiTransport.Services{
		Ingest:  ingestuc.New(chunks, extractors, cfg.Storage.UploadsDir, params, logger.Named("ingest")),
		Answer:  answeruc.New(chunks, embedder, generator, logger.Named("answer")),
		Modules: modulesuc.New(chunks),
		Chats:   chatuc.New(chatrepo.New(store, cfg.Storage.KeyPrefix), logger.Named("chat")),
		Health:  healthuc.New(store, chunks, embeddingHealth).WithLogger(logger.Named("health")),
	}, chiTransport.UploadLimits{
		MaxBytes: cfg.Upload.MaxBytes,
		MaxFiles: cfg.Upload.MaxFiles,
		TempDir:  cfg.Upload.TempDir,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(tokenPrincipals(cfg.Auth)))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.ParamErrorHandler,
	})

	if len(cfg.Auth.Tokens) == 0 {
		logger.Warn("No auth tokens configured, requests run as local admin")
	}

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

// tokenPrincipals turns the configured tokens into the auth middleware lookup table.
func tokenPrincipals(auth config.AuthConfig) map[string]principal.Principal {
	out := make(map[string]principal.Principal, len(auth.Tokens))
	for _, t := range auth.Tokens {
		out[t.Token] = principal.Principal{UserID: t.UserID, Role: principal.Role(t.Role)}
	}
	return out
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
// The health checker probes the raw provider, bypassing the cache.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) (domain.Embedder, *embeddingHealthChecker) {
	ec := cfg.Embedding
	base := openaiProv.NewEmbedder(&openaiProv.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Logger:     logger.Named("embedding"),
	})

	var embedder domain.Embedder = base
	if ec.Cache.Enabled {
		embedder = embcache.New(base, store, embcache.Options{
			KeyPrefix: cfg.Storage.KeyPrefix,
			Model:     ec.Model,
			TTL:       time.Duration(ec.Cache.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, embeddinguc.Options{
		BatchSize:   ec.BatchSize,
		Parallelism: ec.Parallelism,
	}, logger)

	return embedder, &embeddingHealthChecker{embedder: base}
}

// buildGenerator assembles OpenAI -> Instrumented (rate limit + usage).
func buildGenerator(cfg config.Config, logger *zap.Logger) domain.Generator {
	gc := cfg.Generation
	base := openaiProv.NewGenerator(&openaiProv.GeneratorConfig{
		Config: openaiProv.Config{
			APIKey:   gc.APIKey,
			BaseURL:  gc.BaseURL,
			Model:    gc.Model,
			Provider: gc.Provider,
			Logger:   logger.Named("generation"),
		},
		Temperature:  gc.Temperature,
		MaxTokens:    gc.MaxTokens,
		SystemPrompt: gc.SystemPrompt,
	})
	return generationuc.NewInstrumentedGenerator(
		base, gc.Provider, gc.Model, gc.RateLimit.RPS, gc.RateLimit.Burst, logger,
	)
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
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Error: "internal error",
						Code:  chiTransport.ErrorCodeInternalError,
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

			ctx := logpkg.With(r.Context(), logger, zap.String("request_id", requestID))
			reqLogger := logpkg.FromContext(ctx, logger)

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
