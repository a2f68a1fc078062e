// Package enrich expands a set of identified risks into concrete mitigations,
// controls, and evaluations by walking the catalog's cross-references and,
// where those are sparse, falling back to lexical heuristics.
package enrich

import (
	"strings"

	"ai-risk-pipeline/internal/catalog"
)

const (
	maxActions     = 20
	maxEvaluations = 10
	baselineLimit  = 10

	minActionOverlap = 2
)

// safetyKeywords flag catalog entries that are broadly applicable to any
// generative system, used when token overlap alone is too weak a signal.
var safetyKeywords = []string{
	"harm", "bias", "toxic", "safety", "content", "output", "security",
	"hallucin", "ground", "relevance", "privacy", "pii", "sensitive",
	"jailbreak", "profanity", "violence", "unethical",
}

// Enrichment bundles the supporting catalog entries resolved for a risk set.
// Ordering is stable: explicit references first, heuristic matches after, each
// in catalog order, deduplicated by id.
type Enrichment struct {
	Actions     []catalog.Action
	Controls    []catalog.Control
	Evaluations []catalog.Evaluation
}

// Enrich resolves the mitigations, controls, and evaluations relevant to the
// given risks. The store is read-only throughout; with no risks the result is
// empty rather than a generic baseline.
func Enrich(store *catalog.Store, risks []catalog.Risk) Enrichment {
	var out Enrichment
	if store == nil {
		return out
	}

	seenActions := make(map[string]struct{})
	seenControls := make(map[string]struct{})
	seenEvals := make(map[string]struct{})

	// Explicit cross-references take priority over anything heuristic.
	for _, risk := range risks {
		for _, action := range store.RelatedActions(risk) {
			if _, ok := seenActions[action.ID]; ok {
				continue
			}
			seenActions[action.ID] = struct{}{}
			out.Actions = append(out.Actions, action)
		}
		for _, control := range store.RelatedControls(risk) {
			if _, ok := seenControls[control.ID]; ok {
				continue
			}
			seenControls[control.ID] = struct{}{}
			out.Controls = append(out.Controls, control)
		}
		for _, eval := range store.RelatedEvaluations(risk) {
			if _, ok := seenEvals[eval.ID]; ok {
				continue
			}
			seenEvals[eval.ID] = struct{}{}
			out.Evaluations = append(out.Evaluations, eval)
		}
	}

	tokens := riskTokens(risks)
	hasRisks := len(risks) > 0

	for _, action := range store.AllActions() {
		if _, ok := seenActions[action.ID]; ok {
			continue
		}
		if overlap(tokens, action.Name+" "+action.Description) >= minActionOverlap {
			seenActions[action.ID] = struct{}{}
			out.Actions = append(out.Actions, action)
		}
	}
	for _, control := range store.AllControls() {
		if _, ok := seenControls[control.ID]; ok {
			continue
		}
		text := control.Name + " " + control.Description
		if overlap(tokens, text) >= 1 || (hasRisks && hasSafetyKeyword(text)) {
			seenControls[control.ID] = struct{}{}
			out.Controls = append(out.Controls, control)
		}
	}
	for _, eval := range store.AllEvaluations() {
		if _, ok := seenEvals[eval.ID]; ok {
			continue
		}
		text := eval.Name + " " + eval.Description
		if overlap(tokens, text) >= 1 || (hasRisks && hasSafetyKeyword(text)) {
			seenEvals[eval.ID] = struct{}{}
			out.Evaluations = append(out.Evaluations, eval)
		}
	}

	// Risks were identified but no control or evaluation lined up; surface a
	// slice of the catalog rather than nothing actionable.
	if hasRisks && len(out.Controls) == 0 {
		controls := store.AllControls()
		if len(controls) > baselineLimit {
			controls = controls[:baselineLimit]
		}
		out.Controls = controls
	}
	if hasRisks && len(out.Evaluations) == 0 {
		evals := store.AllEvaluations()
		if len(evals) > baselineLimit {
			evals = evals[:baselineLimit]
		}
		out.Evaluations = evals
	}

	if len(out.Actions) > maxActions {
		out.Actions = out.Actions[:maxActions]
	}
	if len(out.Evaluations) > maxEvaluations {
		out.Evaluations = out.Evaluations[:maxEvaluations]
	}
	return out
}

// riskTokens collects the distinguishing words across all risks. Short words
// carry no signal and are dropped.
func riskTokens(risks []catalog.Risk) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, risk := range risks {
		for _, field := range []string{risk.Name, risk.Description, risk.Tag} {
			for _, word := range strings.Fields(strings.ToLower(field)) {
				word = strings.Trim(word, ".,;:()[]\"'")
				if len(word) > 3 {
					tokens[word] = struct{}{}
				}
			}
		}
	}
	return tokens
}

func overlap(tokens map[string]struct{}, text string) int {
	count := 0
	lower := strings.ToLower(text)
	for token := range tokens {
		if strings.Contains(lower, token) {
			count++
		}
	}
	return count
}

func hasSafetyKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range safetyKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
