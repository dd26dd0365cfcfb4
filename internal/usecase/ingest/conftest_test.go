package ingest

import (
	"context"

	"github.com/candidex/candidex/internal/domain"
	"github.com/candidex/candidex/internal/textproc"
)

type mockProcessor struct {
	result textproc.Result
	err    error
}

func (m *mockProcessor) Process(_ string) (textproc.Result, error) {
	return m.result, m.err
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

type mockRepo struct {
	docs []*domain.IndexedDocument
	err  error
}

func (m *mockRepo) Upsert(_ context.Context, doc *domain.IndexedDocument) error {
	if m.err != nil {
		return m.err
	}
	m.docs = append(m.docs, doc)
	return nil
}
