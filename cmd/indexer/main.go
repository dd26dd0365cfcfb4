// Command indexer ingests a directory of press release files into the
// vector index and writes a JSON run report.
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/candidex/candidex/internal/config"
	dbRedis "github.com/candidex/candidex/internal/db/redis"
	"github.com/candidex/candidex/internal/domain"
	"github.com/candidex/candidex/internal/extract"
	logpkg "github.com/candidex/candidex/internal/logger"
	"github.com/candidex/candidex/internal/metrics"
	"github.com/candidex/candidex/internal/repository/embcache"
	pressrepo "github.com/candidex/candidex/internal/repository/press"
	"github.com/candidex/candidex/internal/textproc"
	openaiT "github.com/candidex/candidex/internal/transport/openai"
	ingestuc "github.com/candidex/candidex/internal/usecase/ingest"
	"github.com/candidex/candidex/internal/version"
)

func main() {
	var (
		dirFlag     = flag.String("dir", "", "directory of documents to ingest (default: config ingest.docs_dir)")
		reportFlag  = flag.String("report", "", "path of the JSON run report (default: config ingest.results_log)")
		reindexFlag = flag.Bool("reindex", false, "drop and recreate the vector index before ingesting")
	)
	flag.Parse()

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

	dir := cfg.Ingest.DocsDir
	if *dirFlag != "" {
		dir = *dirFlag
	}
	reportPath := cfg.Ingest.ResultsLog
	if *reportFlag != "" {
		reportPath = *reportFlag
	}

	logger.Info("Starting candidex indexer",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("dir", dir),
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

	metrics.Register()

	repo := pressrepo.New(store, cfg.Storage.KeyPrefix, cfg.Storage.Collection, cfg.Embedding.Dimensions)
	if *reindexFlag {
		if err := repo.ResetIndex(ctx); err != nil {
			logger.Fatal("Failed to recreate vector index", zap.Error(err))
		}
		logger.Info("Vector index recreated")
	} else if err := repo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}

	base := openaiT.NewEmbedder(&openaiT.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	retrying := domain.NewRetryingEmbedder(base, cfg.Embedding.MaxAttempts, 0, 0)
	cacheTTL := time.Duration(cfg.Embedding.CacheTTLSec) * time.Second
	embedder := embcache.New(retrying, store, cfg.Storage.KeyPrefix, cacheTTL, metrics.EmbeddingCacheTotal, logger)

	pipeline := ingestuc.New(
		ingestuc.ExtractorFunc(extract.Text),
		textproc.NewProcessor(),
		embedder,
		repo,
		logger,
	)

	report, err := pipeline.ProcessDirectory(ctx, dir)
	if err != nil {
		logger.Fatal("Directory ingestion failed", zap.Error(err))
	}

	if err := report.Write(reportPath); err != nil {
		logger.Fatal("Failed to write run report", zap.Error(err))
	}

	total, err := repo.Count(ctx)
	if err != nil {
		logger.Warn("Failed to count indexed documents", zap.Error(err))
	}

	logger.Info("Ingestion complete",
		zap.Int("indexed", len(report.ProcessedDocuments)),
		zap.Int("total_in_index", total),
		zap.String("report", reportPath),
	)
}
