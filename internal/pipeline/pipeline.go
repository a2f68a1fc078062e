// Package pipeline orchestrates the full identification flow: describe the
// use case, prompt the model against the catalog, reconcile the response back
// into catalog vocabulary, and enrich the matches with mitigations, controls,
// and evaluations.
package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"ai-risk-pipeline/internal/ai"
	"ai-risk-pipeline/internal/catalog"
	"ai-risk-pipeline/internal/enrich"
	"ai-risk-pipeline/internal/prompt"
	"ai-risk-pipeline/internal/reconcile"
	"ai-risk-pipeline/internal/usecase"
)

// DefaultTaxonomy scopes identification when the caller names no framework.
const DefaultTaxonomy = "ibm-risk-atlas"

// Analysis carries the derived classification of the use case alongside how
// much of the model output survived reconciliation.
type Analysis struct {
	UseCaseType        string   `json:"useCaseType"`
	IsGenAI            bool     `json:"isGenAI"`
	IsAgenticAI        bool     `json:"isAgenticAI"`
	MatchedTaxonomies  []string `json:"matchedTaxonomies"`
	TotalRisksAnalyzed int      `json:"totalRisksAnalyzed"`
	LLMConfidence      float64  `json:"llmConfidence"`
}

// Result is the complete identification outcome for one use case.
type Result struct {
	IdentifiedRisks []catalog.EnrichedRisk `json:"identifiedRisks"`
	Mitigations     []catalog.Action       `json:"mitigations"`
	Controls        []catalog.Control      `json:"controls"`
	Evaluations     []catalog.Evaluation   `json:"evaluations"`
	Analysis        Analysis               `json:"analysis"`
	RawLLMResponse  string                 `json:"rawLLMResponse,omitempty"`
}

// Engine wires the catalog store and model gateway into one identification
// entry point.
type Engine struct {
	store    *catalog.Store
	gateway  ai.Completer
	taxonomy string
	log      *logrus.Entry
}

// Option adjusts Engine construction.
type Option func(*Engine)

// WithTaxonomy scopes identification to one catalog framework.
func WithTaxonomy(taxonomy string) Option {
	return func(e *Engine) {
		if taxonomy != "" {
			e.taxonomy = taxonomy
		}
	}
}

// NewEngine builds an identification engine over the given store and gateway.
func NewEngine(store *catalog.Store, gateway ai.Completer, opts ...Option) *Engine {
	engine := &Engine{
		store:    store,
		gateway:  gateway,
		taxonomy: DefaultTaxonomy,
		log:      logrus.WithField("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Identify runs the use case through the model and reconciles the answer
// against the catalog. Unlike search, identification has no degraded mode:
// a gateway failure is the caller's to handle.
func (e *Engine) Identify(ctx context.Context, input usecase.Input) (*Result, error) {
	if e.gateway == nil || !e.gateway.Enabled() {
		return nil, ai.ErrDisabled
	}

	risks := e.store.AllRisks(&catalog.RiskFilter{Taxonomy: e.taxonomy})
	if len(risks) == 0 {
		risks = e.store.AllRisks(nil)
	}

	description := input.Describe()
	userPrompt := prompt.Identification(prompt.CatalogExcerpt(risks, 0), description)

	raw, err := e.gateway.Complete(ctx, prompt.IdentifySystem, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("identify risks: %w", err)
	}

	reconciled := reconcile.Reconcile(raw, risks)
	e.log.WithFields(logrus.Fields{
		"candidates": len(reconciled.Raw),
		"matched":    len(reconciled.Risks),
		"shape":      reconciled.Shape.String(),
		"confidence": reconciled.Confidence,
	}).Info("reconciled model response")

	enrichment := enrich.Enrich(e.store, reconciled.Risks)

	identified := make([]catalog.EnrichedRisk, 0, len(reconciled.Risks))
	for _, risk := range reconciled.Risks {
		identified = append(identified, e.store.EnrichRisk(risk))
	}

	return &Result{
		IdentifiedRisks: identified,
		Mitigations:     enrichment.Actions,
		Controls:        enrichment.Controls,
		Evaluations:     enrichment.Evaluations,
		Analysis: Analysis{
			UseCaseType:        input.UseCaseType(),
			IsGenAI:            input.IsGenAI(),
			IsAgenticAI:        input.IsAgenticAI(),
			MatchedTaxonomies:  matchedTaxonomies(reconciled.Risks),
			TotalRisksAnalyzed: len(risks),
			LLMConfidence:      reconciled.Confidence,
		},
		RawLLMResponse: raw,
	}, nil
}

// matchedTaxonomies lists the distinct frameworks the identified risks came
// from, in first-seen order.
func matchedTaxonomies(risks []catalog.Risk) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, risk := range risks {
		if risk.Taxonomy == "" {
			continue
		}
		if _, ok := seen[risk.Taxonomy]; ok {
			continue
		}
		seen[risk.Taxonomy] = struct{}{}
		out = append(out, risk.Taxonomy)
	}
	return out
}
