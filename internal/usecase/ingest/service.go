// Package ingest turns press release files into indexed documents:
// extract, preprocess, embed, upsert.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/candidex/candidex/internal/domain"
	"github.com/candidex/candidex/internal/metrics"
	"github.com/candidex/candidex/internal/textproc"
)

// Extractor pulls plain text from a source file.
type Extractor interface {
	Text(path string) (string, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(path string) (string, error)

func (f ExtractorFunc) Text(path string) (string, error) { return f(path) }

// TextProcessor runs the preprocessing pipeline.
type TextProcessor interface {
	Process(raw string) (textproc.Result, error)
}

// Repository persists indexed documents.
type Repository interface {
	Upsert(ctx context.Context, doc *domain.IndexedDocument) error
}

// Report summarizes a directory ingestion run.
type Report struct {
	ProcessedDocuments []string `json:"processed_documents"`
	Timestamp          string   `json:"timestamp"`
}

// ingestible extensions, dispatched by the extractor.
var supportedExts = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".odt":  true,
	".rtf":  true,
	".txt":  true,
}

// Service is the ingestion pipeline.
type Service struct {
	extractor Extractor
	proc      TextProcessor
	embed     domain.Embedder
	repo      Repository
	logger    *zap.Logger
}

// New creates an ingestion pipeline.
func New(extractor Extractor, proc TextProcessor, embed domain.Embedder, repo Repository, logger *zap.Logger) *Service {
	return &Service{
		extractor: extractor,
		proc:      proc,
		embed:     embed,
		repo:      repo,
		logger:    logger,
	}
}

// Process ingests one file and returns the document id. A file that
// yields no text is skipped, not failed: the id is empty, the error nil,
// and nothing is written to the store.
func (s *Service) Process(ctx context.Context, path string) (string, error) {
	raw, err := s.extractor.Text(path)
	if err != nil {
		if errors.Is(err, domain.ErrExtractionEmpty) {
			metrics.DocumentsIngestedTotal.WithLabelValues("skipped_empty").Inc()
			s.logger.Warn("document yielded no text, skipping", zap.String("path", path))
			return "", nil
		}
		metrics.DocumentsIngestedTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("extract %s: %w", path, err)
	}

	id := domain.DocumentID(path, raw)

	result, err := s.proc.Process(raw)
	if err != nil {
		metrics.DocumentsIngestedTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("preprocess %s: %w", path, err)
	}

	embResult, err := s.embed.Embed(ctx, result.CleanText)
	if err != nil {
		metrics.DocumentsIngestedTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("embed %s: %w", path, err)
	}

	metadata := make(map[string]any, len(result.Metadata)+2)
	for k, v := range result.Metadata {
		metadata[k] = v
	}
	metadata["filename"] = filepath.Base(path)
	metadata["processed_date"] = time.Now().Format(time.RFC3339)

	doc := &domain.IndexedDocument{
		ID:        id,
		Embedding: embResult.Embedding,
		Metadata:  metadata,
		Text:      result.CleanText,
	}
	if err := s.repo.Upsert(ctx, doc); err != nil {
		metrics.DocumentsIngestedTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("store %s: %w", id, err)
	}

	metrics.DocumentsIngestedTotal.WithLabelValues("indexed").Inc()
	s.logger.Info("document indexed",
		zap.String("doc_id", id),
		zap.String("path", path),
		zap.Int("text_length", len(result.CleanText)),
	)
	return id, nil
}

// ProcessDirectory ingests every supported file in dir (non-recursive).
// Failures are isolated per document: a bad file is logged and the run
// continues.
func (s *Service) ProcessDirectory(ctx context.Context, dir string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var processed []string
	for _, entry := range entries {
		if entry.IsDir() || !supportedExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		id, err := s.Process(ctx, path)
		if err != nil {
			s.logger.Error("failed to process document",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		if id != "" {
			processed = append(processed, id)
		}
	}

	s.logger.Info("directory processed",
		zap.String("dir", dir),
		zap.Int("indexed", len(processed)),
	)

	return &Report{
		ProcessedDocuments: processed,
		Timestamp:          time.Now().Format(time.RFC3339),
	}, nil
}

// Write saves the run report as indented JSON.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
