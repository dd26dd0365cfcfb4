package domain

import "context"

// Preferences is the caller-owned candidate preference set. Read-only
// input to matching.
type Preferences struct {
	DesiredRoles  []string `json:"desired_roles"`
	Industries    []string `json:"industries"`
	WorkLocations []string `json:"work_locations"`
	CompanyStages []string `json:"company_stages"`
}

// Evaluation is the judge's structured verdict for one (resume, company
// document) pair. All four criterion scores and FinalScore are in [0, 1].
//
// When the judge response cannot be parsed, Err and RawResponse are set
// and the score fields are zero. This is a sentinel evaluation, not a Go
// error, so one bad judgment never aborts a candidate set.
type Evaluation struct {
	CompanyName        string  `json:"company_name"`
	CompanyDescription string  `json:"company_description"`
	IndustryScore      float64 `json:"industry_score"`
	TechnicalScore     float64 `json:"technical_score"`
	ExperienceScore    float64 `json:"experience_score"`
	GrowthScore        float64 `json:"growth_score"`
	FinalScore         float64 `json:"final_score"`
	Reasoning          string  `json:"reasoning"`

	Err         string `json:"error,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`
}

// Failed reports whether this is a parse-failure sentinel.
func (e *Evaluation) Failed() bool { return e.Err != "" }

// Scorer produces a weighted multi-criteria evaluation of a candidate
// against a company document. Implementations wrap an LLM judge; the
// interface keeps the backend (vendor, rubric version) swappable.
type Scorer interface {
	Evaluate(ctx context.Context, resumeText, companyText string, prefs Preferences) (Evaluation, error)
}

// MatchReasons breaks the final score down per criterion.
type MatchReasons struct {
	IndustryMatch   float64 `json:"industry_match"`
	TechnicalMatch  float64 `json:"technical_match"`
	ExperienceMatch float64 `json:"experience_match"`
	GrowthMatch     float64 `json:"growth_match"`
	Reasoning       string  `json:"reasoning"`
}

// RankedMatch is one entry of a match response. SimilarityScore is the
// raw cosine distance from retrieval (lower = closer); FinalScore is the
// judge's weighted score. Ephemeral, owned by the request scope.
type RankedMatch struct {
	FinalScore         float64           `json:"final_score"`
	CompanyName        string            `json:"company_name"`
	CompanyDescription string            `json:"company_description"`
	SimilarityScore    float64           `json:"similarity_score"`
	CompanyText        string            `json:"company_text"`
	MatchReasons       MatchReasons      `json:"match_reasons"`
	Metadata           map[string]string `json:"metadata"`
}

// MatchResult is the full response of a match request. A zero-match
// result is valid, not an error: Count 0 with the threshold that was
// applied distinguishes "nothing cleared the bar" from a failed request.
type MatchResult struct {
	Matches         []RankedMatch `json:"matches"`
	Count           int           `json:"count"`
	MinScoreApplied float64       `json:"min_score_applied"`
}
