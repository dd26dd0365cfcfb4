package match

import (
	"context"

	"github.com/candidex/candidex/internal/domain"
)

type mockRepo struct {
	candidates []domain.Candidate
	err        error
	lastK      int
}

func (m *mockRepo) SearchKNN(_ context.Context, _ []float32, k int) ([]domain.Candidate, error) {
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	if len(m.candidates) > k {
		return m.candidates[:k], nil
	}
	return m.candidates, nil
}

type mockEmbedder struct {
	result   domain.EmbeddingResult
	err      error
	lastText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.lastText = text
	return m.result, m.err
}

// mockScorer returns evaluations keyed by company text; evalFn overrides
// when set.
type mockScorer struct {
	evals  map[string]domain.Evaluation
	evalFn func(companyText string) (domain.Evaluation, error)
	calls  int
}

func (m *mockScorer) Evaluate(
	_ context.Context, _, companyText string, _ domain.Preferences,
) (domain.Evaluation, error) {
	m.calls++
	if m.evalFn != nil {
		return m.evalFn(companyText)
	}
	return m.evals[companyText], nil
}
