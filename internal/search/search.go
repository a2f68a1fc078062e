// Package search ranks catalog risks against a free-text query, semantically
// when a model gateway is available and lexically otherwise. Search never
// fails: any gateway trouble degrades to the lexical path.
package search

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"ai-risk-pipeline/internal/ai"
	"ai-risk-pipeline/internal/catalog"
	"ai-risk-pipeline/internal/prompt"
	"ai-risk-pipeline/internal/reconcile"
)

// DefaultLimit bounds how many results a query returns when the caller does
// not say otherwise.
const DefaultLimit = 20

// Options narrows and sizes a search.
type Options struct {
	Taxonomies []string
	Limit      int
}

// Result is a ranked answer. Scores are normalized to [0, 1].
type Result struct {
	Risks           []catalog.EnrichedRisk `json:"risks"`
	RelevanceScores map[string]float64     `json:"relevanceScores"`
	TotalMatched    int                    `json:"totalMatched"`
	Semantic        bool                   `json:"semantic"`
}

type scoredMatch struct {
	id    string
	score float64
}

// Searcher runs queries against one catalog store through an optional model
// gateway.
type Searcher struct {
	store   *catalog.Store
	gateway ai.Completer
	log     *logrus.Entry
}

// NewSearcher builds a Searcher. A nil gateway pins every query to the
// lexical path.
func NewSearcher(store *catalog.Store, gateway ai.Completer) *Searcher {
	return &Searcher{
		store:   store,
		gateway: gateway,
		log:     logrus.WithField("component", "search"),
	}
}

// Search ranks the catalog against the query. It always produces a result;
// gateway failures are logged and absorbed into the lexical fallback.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) Result {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	risks := s.candidateRisks(opts.Taxonomies)

	if s.gateway != nil && s.gateway.Enabled() {
		matches, err := s.semanticMatches(ctx, query, risks, limit)
		if err != nil {
			s.log.WithError(err).Warn("semantic search unavailable, using lexical fallback")
		} else {
			return s.assemble(risks, matches, limit, true)
		}
	}
	return s.assemble(risks, lexicalMatches(query, risks), limit, false)
}

func (s *Searcher) candidateRisks(taxonomies []string) []catalog.Risk {
	if len(taxonomies) == 0 {
		return s.store.AllRisks(nil)
	}
	var out []catalog.Risk
	for _, taxonomy := range taxonomies {
		out = append(out, s.store.AllRisks(&catalog.RiskFilter{Taxonomy: taxonomy})...)
	}
	return out
}

func (s *Searcher) semanticMatches(ctx context.Context, query string, risks []catalog.Risk, limit int) ([]scoredMatch, error) {
	raw, err := s.gateway.Complete(ctx, prompt.SearchSystem, prompt.Search(query, risks, limit))
	if err != nil {
		return nil, err
	}
	var parsed []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(reconcile.StripFences(raw)), &parsed); err != nil {
		return nil, err
	}
	matches := make([]scoredMatch, 0, len(parsed))
	for _, entry := range parsed {
		if entry.ID == "" {
			continue
		}
		matches = append(matches, scoredMatch{id: entry.ID, score: entry.Score / 100})
	}
	return matches, nil
}

// lexicalMatches scores risks by query-word containment. Each word found in
// the risk text counts once, with a bonus when it appears in the name itself,
// normalized by the number of words in the query.
func lexicalMatches(query string, risks []catalog.Risk) []scoredMatch {
	var words []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) > 2 {
			words = append(words, word)
		}
	}
	if len(words) == 0 {
		return nil
	}

	var matches []scoredMatch
	for _, risk := range risks {
		name := strings.ToLower(risk.Name)
		text := name + " " + strings.ToLower(risk.Description) + " " + strings.ToLower(risk.Tag)
		score := 0.0
		for _, word := range words {
			if strings.Contains(text, word) {
				score++
			}
			if strings.Contains(name, word) {
				score += 0.5
			}
		}
		if score <= 0 {
			continue
		}
		normalized := score / float64(len(words))
		if normalized > 1 {
			normalized = 1
		}
		matches = append(matches, scoredMatch{id: risk.ID, score: normalized})
	}
	return matches
}

func (s *Searcher) assemble(risks []catalog.Risk, matches []scoredMatch, limit int, semantic bool) Result {
	byID := make(map[string]catalog.Risk, len(risks))
	for _, risk := range risks {
		byID[risk.ID] = risk
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	result := Result{RelevanceScores: make(map[string]float64), Semantic: semantic}
	seen := make(map[string]struct{})
	for _, match := range matches {
		risk, ok := byID[match.id]
		if !ok {
			continue
		}
		if _, dup := seen[risk.ID]; dup {
			continue
		}
		seen[risk.ID] = struct{}{}
		result.TotalMatched++
		result.RelevanceScores[risk.ID] = match.score
		if len(result.Risks) < limit {
			result.Risks = append(result.Risks, s.store.EnrichRisk(risk))
		}
	}
	return result
}
