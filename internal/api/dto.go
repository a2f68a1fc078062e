package api

import (
	"time"

	"ai-risk-pipeline/internal/catalog"
	"ai-risk-pipeline/internal/pipeline"
	"ai-risk-pipeline/internal/store"
	"ai-risk-pipeline/internal/usecase"
)

// IdentifyRequest is the identification payload: the structured use case plus
// an optional taxonomy scope.
type IdentifyRequest struct {
	usecase.Input
	Taxonomy string `json:"taxonomy,omitempty"`
}

// IdentifyResponse wraps the pipeline result with the persisted analysis id
// and timing.
type IdentifyResponse struct {
	ID string `json:"id"`
	*pipeline.Result
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// RecommendRequest carries the system characteristics for catalog-only
// recommendations.
type RecommendRequest struct {
	catalog.Characteristics
	Limit int `json:"limit,omitempty"`
}

// AnalysisDTO is the API representation for a persisted analysis row.
type AnalysisDTO struct {
	ID            string    `json:"id"`
	UseCaseTitle  string    `json:"use_case_title"`
	UseCaseType   string    `json:"use_case_type"`
	IsGenAI       bool      `json:"is_gen_ai"`
	IsAgenticAI   bool      `json:"is_agentic_ai"`
	Taxonomy      string    `json:"taxonomy"`
	RiskIDs       []string  `json:"risk_ids"`
	RiskCount     int       `json:"risk_count"`
	LLMConfidence float64   `json:"llm_confidence"`
	ProcessingMs  int64     `json:"processing_time_ms"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AnalysesResponse holds analysis rows and the unfiltered total.
type AnalysesResponse struct {
	Items []AnalysisDTO `json:"items"`
	Total int64         `json:"total"`
}

// AnalysisFromModel maps a persisted analysis to its API shape.
func AnalysisFromModel(row store.Analysis) AnalysisDTO {
	return AnalysisDTO{
		ID:            row.ID,
		UseCaseTitle:  row.UseCaseTitle,
		UseCaseType:   row.UseCaseType,
		IsGenAI:       row.IsGenAI,
		IsAgenticAI:   row.IsAgenticAI,
		Taxonomy:      row.Taxonomy,
		RiskIDs:       row.RiskIDs(),
		RiskCount:     row.RiskCount,
		LLMConfidence: row.LLMConfidence,
		ProcessingMs:  row.ProcessingMs,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
