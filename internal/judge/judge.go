// Package judge turns LLM completions into structured candidate-startup
// evaluations using a fixed weighted rubric.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/candidex/candidex/internal/domain"
	"github.com/candidex/candidex/internal/metrics"
)

// systemPrompt pins the judge persona and output contract.
const systemPrompt = "You are an expert recruiter evaluating candidate-startup matches. " +
	"Always respond with valid JSON only."

//go:embed prompt.md
var promptTemplate string

const previewLen = 200

// Generator produces a completion for a system+user prompt pair.
// Implementations wrap a concrete LLM backend.
type Generator interface {
	GenerateContent(ctx context.Context, system, user string) (string, error)
	Model() string
}

// Judge implements domain.Scorer on top of a Generator.
type Judge struct {
	generator Generator
	backend   string
	logger    *zap.Logger
}

// New creates a Judge. backend names the generator family for logs and
// metrics ("openai", "gemini").
func New(generator Generator, backend string, logger *zap.Logger) *Judge {
	return &Judge{
		generator: generator,
		backend:   backend,
		logger:    logger,
	}
}

// Evaluate scores one (resume, company document) pair. A malformed model
// response yields a sentinel Evaluation (Err and RawResponse set) with a
// nil error, so one bad judgment never aborts the whole candidate set.
// A transport failure is a real error.
func (j *Judge) Evaluate(
	ctx context.Context, resumeText, companyText string, prefs domain.Preferences,
) (domain.Evaluation, error) {
	prompt := buildPrompt(resumeText, companyText, prefs)

	j.logger.Debug("judge request",
		zap.String("backend", j.backend),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	start := time.Now()
	raw, err := j.generator.GenerateContent(ctx, systemPrompt, prompt)
	duration := time.Since(start)

	model := j.generator.Model()
	if err != nil {
		metrics.JudgeRequestsTotal.WithLabelValues(j.backend, model, "error").Inc()
		return domain.Evaluation{}, fmt.Errorf("judge completion: %w", err)
	}
	metrics.JudgeRequestDuration.WithLabelValues(j.backend, model).Observe(duration.Seconds())

	eval, ok := parseEvaluation(raw)
	if !ok {
		metrics.JudgeRequestsTotal.WithLabelValues(j.backend, model, "parse_error").Inc()
		j.logger.Warn("judge returned unparseable response",
			zap.String("backend", j.backend),
			zap.String("response_preview", truncate(raw, previewLen)),
		)
		return domain.Evaluation{
			Err:         "Failed to parse LLM response",
			RawResponse: raw,
		}, nil
	}

	metrics.JudgeRequestsTotal.WithLabelValues(j.backend, model, "success").Inc()
	return eval, nil
}

func buildPrompt(resumeText, companyText string, prefs domain.Preferences) string {
	p := promptTemplate
	p = strings.ReplaceAll(p, "{{STARTUP_INFO}}", companyText)
	p = strings.ReplaceAll(p, "{{RESUME}}", resumeText)
	p = strings.ReplaceAll(p, "{{DESIRED_ROLES}}", strings.Join(prefs.DesiredRoles, ", "))
	p = strings.ReplaceAll(p, "{{INDUSTRIES}}", strings.Join(prefs.Industries, ", "))
	p = strings.ReplaceAll(p, "{{LOCATIONS}}", strings.Join(prefs.WorkLocations, ", "))
	p = strings.ReplaceAll(p, "{{STAGES}}", strings.Join(prefs.CompanyStages, ", "))
	return p
}

func parseEvaluation(raw string) (domain.Evaluation, bool) {
	cleaned := ExtractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return domain.Evaluation{}, false
	}

	eval := domain.Evaluation{
		CompanyName:        coerceString(data["company_name"]),
		CompanyDescription: coerceString(data["company_description"]),
		IndustryScore:      coerceFloat(data["industry_score"]),
		TechnicalScore:     coerceFloat(data["technical_score"]),
		ExperienceScore:    coerceFloat(data["experience_score"]),
		GrowthScore:        coerceFloat(data["growth_score"]),
		FinalScore:         coerceFloat(data["final_score"]),
		Reasoning:          coerceString(data["reasoning"]),
	}
	return eval, true
}

// ExtractJSON tolerates fenced code blocks around a JSON payload.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) {
			return 0
		}
		return f
	default:
		return 0
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	default:
		if v == nil {
			return ""
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}
