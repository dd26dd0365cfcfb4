// Package match ranks indexed press releases against a candidate resume:
// embedding KNN retrieval followed by LLM judge re-ranking.
package match

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/candidex/candidex/internal/domain"
)

// Repository is the retrieval surface the engine needs (ISP).
type Repository interface {
	SearchKNN(ctx context.Context, vector []float32, k int) ([]domain.Candidate, error)
}

// Options tune retrieval and ranking.
type Options struct {
	// DefaultMatches is used when the caller asks for <= 0 matches.
	DefaultMatches int
	// MinScore is the judge score threshold; matches below it are dropped.
	MinScore float64
	// OverfetchFactor widens retrieval so judge filtering still leaves
	// enough survivors: k = OverfetchFactor * numMatches.
	OverfetchFactor int
}

// Service is the matching engine.
type Service struct {
	repo   Repository
	embed  domain.Embedder
	scorer domain.Scorer
	opts   Options
	logger *zap.Logger
}

// New creates a matching engine. Zero option fields fall back to
// 1 match, 0.6 threshold, overfetch factor 2.
func New(repo Repository, embed domain.Embedder, scorer domain.Scorer, opts Options, logger *zap.Logger) *Service {
	if opts.DefaultMatches <= 0 {
		opts.DefaultMatches = 1
	}
	if opts.MinScore <= 0 {
		opts.MinScore = 0.6
	}
	if opts.OverfetchFactor <= 0 {
		opts.OverfetchFactor = 2
	}
	return &Service{
		repo:   repo,
		embed:  embed,
		scorer: scorer,
		opts:   opts,
		logger: logger,
	}
}

// FindMatches retrieves candidate companies by embedding similarity, has
// the judge score each one, and returns the top numMatches above the
// threshold, best first. Zero matches is a valid result, not an error.
func (s *Service) FindMatches(
	ctx context.Context, resumeText string, prefs domain.Preferences, numMatches int,
) (domain.MatchResult, error) {
	if numMatches <= 0 {
		numMatches = s.opts.DefaultMatches
	}

	searchText := buildSearchText(resumeText, prefs)

	embResult, err := s.embed.Embed(ctx, searchText)
	if err != nil {
		return domain.MatchResult{}, fmt.Errorf("embed search text: %w", err)
	}

	k := s.opts.OverfetchFactor * numMatches
	candidates, err := s.repo.SearchKNN(ctx, embResult.Embedding, k)
	if err != nil {
		return domain.MatchResult{}, fmt.Errorf("retrieve candidates: %w", err)
	}

	s.logger.Debug("candidates retrieved",
		zap.Int("requested", numMatches),
		zap.Int("fetched", len(candidates)),
	)

	matches := make([]domain.RankedMatch, 0, len(candidates))
	for _, cand := range candidates {
		eval, err := s.scorer.Evaluate(ctx, resumeText, cand.Text, prefs)
		if err != nil {
			// One failed judgment must not abort the whole set.
			s.logger.Warn("judge call failed, skipping candidate",
				zap.String("doc_id", cand.ID),
				zap.Error(err),
			)
			continue
		}
		if eval.Failed() {
			s.logger.Warn("judge response unparseable, skipping candidate",
				zap.String("doc_id", cand.ID),
			)
			continue
		}
		if eval.FinalScore < s.opts.MinScore {
			continue
		}

		matches = append(matches, rankedMatch(cand, eval))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].FinalScore > matches[j].FinalScore
	})
	if len(matches) > numMatches {
		matches = matches[:numMatches]
	}

	return domain.MatchResult{
		Matches:         matches,
		Count:           len(matches),
		MinScoreApplied: s.opts.MinScore,
	}, nil
}

func rankedMatch(cand domain.Candidate, eval domain.Evaluation) domain.RankedMatch {
	return domain.RankedMatch{
		FinalScore:         eval.FinalScore,
		CompanyName:        eval.CompanyName,
		CompanyDescription: eval.CompanyDescription,
		SimilarityScore:    cand.Distance,
		CompanyText:        cand.Text,
		MatchReasons: domain.MatchReasons{
			IndustryMatch:   eval.IndustryScore,
			TechnicalMatch:  eval.TechnicalScore,
			ExperienceMatch: eval.ExperienceScore,
			GrowthMatch:     eval.GrowthScore,
			Reasoning:       eval.Reasoning,
		},
		Metadata: cand.Metadata,
	}
}

// buildSearchText folds the resume and preferences into one retrieval
// query so the embedding reflects what the candidate wants, not just
// what they have done.
func buildSearchText(resumeText string, prefs domain.Preferences) string {
	text := fmt.Sprintf(
		"Resume: %s\nDesired Role: %s\nPreferred Industries: %s\nPreferred Locations: %s",
		resumeText,
		strings.Join(prefs.DesiredRoles, ", "),
		strings.Join(prefs.Industries, ", "),
		strings.Join(prefs.WorkLocations, ", "),
	)
	return strings.TrimSpace(text)
}
