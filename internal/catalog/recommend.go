package catalog

import (
	"sort"
	"strings"
)

// Characteristics describe a use case for deterministic risk recommendation.
type Characteristics struct {
	IsGenAI      bool     `json:"isGenAI"`
	IsAgenticAI  bool     `json:"isAgenticAI"`
	HasRAG       bool     `json:"hasRAG"`
	HasPlugins   bool     `json:"hasPlugins"`
	PublicFacing bool     `json:"publicFacing"`
	DataTypes    []string `json:"dataTypes,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
}

// Recommendation pairs a risk with its relevance score and explicit relations.
type Recommendation struct {
	Risk           EnrichedRisk `json:"risk"`
	RelevanceScore int          `json:"relevanceScore"`
	Mitigations    []Action     `json:"mitigations"`
	Controls       []Control    `json:"controls"`
	Evaluations    []Evaluation `json:"evaluations"`
}

const (
	recommendCutoff = 10
	recommendLimit  = 50
)

// RecommendRisks scores every catalog risk against the use-case
// characteristics and returns the top matches above the relevance cutoff.
// Purely lexical; no model call involved.
func (s *Store) RecommendRisks(ch Characteristics) []Recommendation {
	var recs []Recommendation
	for _, risk := range s.risks {
		score := scoreRisk(risk, ch)
		if score <= recommendCutoff {
			continue
		}
		recs = append(recs, Recommendation{
			Risk:           s.EnrichRisk(risk),
			RelevanceScore: score,
			Mitigations:    s.RelatedActions(risk),
			Controls:       s.RelatedControls(risk),
			Evaluations:    s.RelatedEvaluations(risk),
		})
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].RelevanceScore > recs[j].RelevanceScore
	})
	if len(recs) > recommendLimit {
		recs = recs[:recommendLimit]
	}
	return recs
}

func scoreRisk(risk Risk, ch Characteristics) int {
	text := strings.ToLower(risk.Description + " " + risk.Name)
	score := 0

	if ch.IsGenAI && containsAny(text, "generat", "llm", "language model", "hallucin", "prompt") {
		score += 30
	}
	if ch.IsAgenticAI && containsAny(text, "agent", "autonom", "decision", "action") {
		score += 30
	}
	if ch.HasRAG && containsAny(text, "retriev", "ground", "context", "embed") {
		score += 20
	}
	if ch.HasPlugins && containsAny(text, "tool", "plugin", "integrat", "api") {
		score += 20
	}
	if ch.PublicFacing && containsAny(text, "user", "public", "attack", "inject") {
		score += 15
	}

	if len(ch.DataTypes) > 0 {
		sensitive := false
		for _, dt := range ch.DataTypes {
			if containsAny(strings.ToLower(dt), "pii", "personal", "sensitive", "health", "financial") {
				sensitive = true
				break
			}
		}
		if sensitive && containsAny(text, "privacy", "data", "confidential") {
			score += 25
		}
	}

	for _, keyword := range ch.Keywords {
		if keyword != "" && strings.Contains(text, strings.ToLower(keyword)) {
			score += 10
		}
	}

	// Authoritative taxonomies rank slightly ahead on ties.
	switch risk.Taxonomy {
	case "ibm-risk-atlas", "owasp-llm-2.0":
		score += 5
	case "nist-ai-rmf":
		score += 3
	}

	return score
}

func containsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
