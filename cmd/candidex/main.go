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
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/candidex/candidex/internal/config"
	dbRedis "github.com/candidex/candidex/internal/db/redis"
	"github.com/candidex/candidex/internal/domain"
	"github.com/candidex/candidex/internal/extract"
	"github.com/candidex/candidex/internal/judge"
	logpkg "github.com/candidex/candidex/internal/logger"
	"github.com/candidex/candidex/internal/metrics"
	"github.com/candidex/candidex/internal/repository/embcache"
	pressrepo "github.com/candidex/candidex/internal/repository/press"
	"github.com/candidex/candidex/internal/session"
	chiTransport "github.com/candidex/candidex/internal/transport/chi"
	"github.com/candidex/candidex/internal/transport/gemini"
	openaiT "github.com/candidex/candidex/internal/transport/openai"
	ingestuc "github.com/candidex/candidex/internal/usecase/ingest"
	matchuc "github.com/candidex/candidex/internal/usecase/match"
	outreachuc "github.com/candidex/candidex/internal/usecase/outreach"
	"github.com/candidex/candidex/internal/version"
)

func main() {
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

	logger.Info("Starting candidex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("judge_backend", cfg.Judge.Backend),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
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
	metrics.Register()

	repo := pressrepo.New(store, cfg.Storage.KeyPrefix, cfg.Storage.Collection, cfg.Embedding.Dimensions)
	if err := repo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}

	embedder := buildEmbedder(cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	generator, err := buildGenerator(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create judge backend", zap.Error(err))
	}
	scorer := judge.New(generator, cfg.Judge.Backend, logger)

	matchSvc := matchuc.New(repo, embedder, scorer, matchuc.Options{
		DefaultMatches:  cfg.Matching.DefaultMatches,
		MinScore:        cfg.Matching.MinScore,
		OverfetchFactor: cfg.Matching.OverfetchFactor,
	}, logger)
	outreachSvc := outreachuc.New(generator, logger)
	sessions := session.NewStore()

	server := chiTransport.NewServer(
		sessions, matchSvc, outreachSvc, repo,
		ingestuc.ExtractorFunc(extract.Text),
		store, cfg.Ingest.UploadsDir, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	if cfg.HTTP.FrontendOrigin != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{cfg.HTTP.FrontendOrigin},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Accept"},
		}))
	}
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

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

// buildEmbedder assembles the decorator chain: OpenAI -> Retrying -> Cached.
// The cache sits outermost so repeated texts skip the provider entirely.
func buildEmbedder(cfg config.Config, store *dbRedis.Store, logger *zap.Logger) domain.Embedder {
	base := openaiT.NewEmbedder(&openaiT.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	retrying := domain.NewRetryingEmbedder(base, cfg.Embedding.MaxAttempts, 0, 0)

	cacheTTL := time.Duration(cfg.Embedding.CacheTTLSec) * time.Second
	return embcache.New(retrying, store, cfg.Storage.KeyPrefix, cacheTTL, metrics.EmbeddingCacheTotal, logger)
}

// buildGenerator selects the LLM backend shared by the judge and the
// outreach service.
func buildGenerator(ctx context.Context, cfg config.Config) (judge.Generator, error) {
	switch cfg.Judge.Backend {
	case "gemini":
		return gemini.NewGenerator(ctx, cfg.Judge.APIKey, cfg.Judge.Model, cfg.Judge.Temperature)
	default:
		return openaiT.NewJudge(&openaiT.JudgeConfig{
			APIKey:      cfg.Judge.APIKey,
			Model:       cfg.Judge.Model,
			Temperature: cfg.Judge.Temperature,
		}), nil
	}
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
						"error": "internal error",
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

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
