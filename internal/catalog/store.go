package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of one catalog source document. Every field is
// optional so that risk files, action files and evaluation files can share
// the same schema.
type File struct {
	Taxonomies  []Taxonomy   `yaml:"taxonomies"`
	RiskGroups  []RiskGroup  `yaml:"riskgroups"`
	Risks       []Risk       `yaml:"risks"`
	Actions     []Action     `yaml:"actions"`
	Controls    []Control    `yaml:"riskcontrols"`
	Evaluations []Evaluation `yaml:"evaluations"`
}

// Data carries pre-built catalog content into NewStore (used by tests and
// embedders that do not read from disk).
type Data struct {
	Taxonomies  []Taxonomy
	RiskGroups  []RiskGroup
	Risks       []Risk
	Actions     []Action
	Controls    []Control
	Evaluations []Evaluation
}

// Store holds the merged risk catalog. All entities are read-only after
// construction, which makes the store safe for concurrent readers.
type Store struct {
	taxonomies  []Taxonomy
	groups      []RiskGroup
	risks       []Risk
	actions     []Action
	controls    []Control
	evaluations []Evaluation
}

// NewStore builds a store from in-memory data, dropping entries that lack the
// required identity fields.
func NewStore(data Data) *Store {
	s := &Store{
		taxonomies: data.Taxonomies,
		groups:     data.RiskGroups,
	}
	for _, r := range data.Risks {
		if r.ID == "" || r.Name == "" {
			continue
		}
		s.risks = append(s.risks, r)
	}
	for _, a := range data.Actions {
		if a.ID == "" || a.Name == "" {
			continue
		}
		s.actions = append(s.actions, a)
	}
	for _, c := range data.Controls {
		if c.ID == "" || c.Name == "" {
			continue
		}
		s.controls = append(s.controls, c)
	}
	for _, e := range data.Evaluations {
		if e.ID == "" || e.Name == "" {
			continue
		}
		s.evaluations = append(s.evaluations, e)
	}
	return s
}

// Load reads every YAML document in dir and merges the results into a single
// store. A file that fails to parse is logged and skipped; the load only
// fails when the directory is unreadable or yields no risks at all.
func Load(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	var data Data
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			logrus.WithError(err).WithField("file", entry.Name()).Warn("read catalog file")
			continue
		}
		var file File
		if err := yaml.Unmarshal(raw, &file); err != nil {
			logrus.WithError(err).WithField("file", entry.Name()).Warn("parse catalog file")
			continue
		}
		data.Taxonomies = append(data.Taxonomies, file.Taxonomies...)
		data.RiskGroups = append(data.RiskGroups, file.RiskGroups...)
		data.Risks = append(data.Risks, file.Risks...)
		data.Actions = append(data.Actions, file.Actions...)
		data.Controls = append(data.Controls, file.Controls...)
		data.Evaluations = append(data.Evaluations, file.Evaluations...)
		loaded++
	}

	store := NewStore(data)
	if len(store.risks) == 0 {
		return nil, fmt.Errorf("no catalog risks loaded from %s", dir)
	}
	logrus.WithFields(logrus.Fields{
		"files":       loaded,
		"risks":       len(store.risks),
		"actions":     len(store.actions),
		"controls":    len(store.controls),
		"evaluations": len(store.evaluations),
	}).Info("risk catalog loaded")
	return store, nil
}

// RiskFilter narrows AllRisks output. Empty fields are ignored.
type RiskFilter struct {
	Taxonomy string
	Group    string
	Tag      string
	Type     string
	Search   string
}

// AllRisks returns the risks matching the optional filter, preserving catalog order.
func (s *Store) AllRisks(filter *RiskFilter) []Risk {
	out := make([]Risk, 0, len(s.risks))
	for _, r := range s.risks {
		if filter != nil {
			if filter.Taxonomy != "" && r.Taxonomy != filter.Taxonomy {
				continue
			}
			if filter.Group != "" && r.Group != filter.Group {
				continue
			}
			if filter.Tag != "" && r.Tag != filter.Tag {
				continue
			}
			if filter.Type != "" && r.Type != filter.Type {
				continue
			}
			if filter.Search != "" {
				needle := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(r.Name), needle) &&
					!strings.Contains(strings.ToLower(r.Description), needle) &&
					!strings.Contains(strings.ToLower(r.Tag), needle) {
					continue
				}
			}
		}
		out = append(out, r)
	}
	return out
}

// RiskByID looks up a risk by its stable identifier.
func (s *Store) RiskByID(id string) (Risk, bool) {
	for _, r := range s.risks {
		if r.ID == id {
			return r, true
		}
	}
	return Risk{}, false
}

// RiskByTag looks up a risk by its classification tag.
func (s *Store) RiskByTag(tag string) (Risk, bool) {
	for _, r := range s.risks {
		if r.Tag == tag {
			return r, true
		}
	}
	return Risk{}, false
}

// AllActions returns a copy of every mitigation action in the catalog.
func (s *Store) AllActions() []Action {
	return append([]Action(nil), s.actions...)
}

// AllControls returns a copy of every control in the catalog.
func (s *Store) AllControls() []Control {
	return append([]Control(nil), s.controls...)
}

// AllEvaluations returns a copy of every evaluation benchmark in the catalog.
func (s *Store) AllEvaluations() []Evaluation {
	return append([]Evaluation(nil), s.evaluations...)
}

// AllTaxonomies returns a copy of the loaded taxonomy metadata.
func (s *Store) AllTaxonomies() []Taxonomy {
	return append([]Taxonomy(nil), s.taxonomies...)
}

// TaxonomyByID resolves taxonomy metadata by identifier.
func (s *Store) TaxonomyByID(id string) (Taxonomy, bool) {
	for _, t := range s.taxonomies {
		if t.ID == id {
			return t, true
		}
	}
	return Taxonomy{}, false
}

// referencesRisk reports whether any of the relation references point at the
// risk. Curated cross-references mix ids with tags, and some carry prefixed
// or suffixed variants, so containment counts as a reference.
func referencesRisk(refs []string, risk Risk) bool {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if ref == risk.ID {
			return true
		}
		if risk.Tag != "" && (ref == risk.Tag || strings.Contains(ref, risk.Tag)) {
			return true
		}
		if risk.ID != "" && strings.Contains(ref, risk.ID) {
			return true
		}
	}
	return false
}

// RelatedActions returns the actions explicitly linked to the risk.
func (s *Store) RelatedActions(risk Risk) []Action {
	var out []Action
	for _, a := range s.actions {
		if referencesRisk(a.RelatedRisks, risk) {
			out = append(out, a)
		}
	}
	return out
}

// RelatedControls returns the controls explicitly linked to the risk.
func (s *Store) RelatedControls(risk Risk) []Control {
	var out []Control
	for _, c := range s.controls {
		if referencesRisk(c.DetectsRisks, risk) {
			out = append(out, c)
		}
	}
	return out
}

// RelatedEvaluations returns the benchmarks explicitly linked to the risk.
func (s *Store) RelatedEvaluations(risk Risk) []Evaluation {
	var out []Evaluation
	for _, e := range s.evaluations {
		if referencesRisk(e.AssessesRisks, risk) {
			out = append(out, e)
		}
	}
	return out
}

// EnrichRisk bundles a risk with its resolved taxonomy names and explicit relations.
func (s *Store) EnrichRisk(risk Risk) EnrichedRisk {
	enriched := EnrichedRisk{Risk: risk}
	if taxonomy, ok := s.TaxonomyByID(risk.Taxonomy); ok {
		enriched.TaxonomyName = taxonomy.Name
	}
	if risk.Group != "" {
		for _, g := range s.groups {
			if g.ID == risk.Group {
				enriched.GroupName = g.Name
				break
			}
		}
	}
	enriched.RelatedActions = s.RelatedActions(risk)
	enriched.RelatedControls = s.RelatedControls(risk)
	enriched.RelatedEvaluations = s.RelatedEvaluations(risk)
	return enriched
}

// Statistics aggregates catalog counts per taxonomy and group.
func (s *Store) Statistics() Statistics {
	stats := Statistics{
		TotalRisks:         len(s.risks),
		TotalActions:       len(s.actions),
		TotalControls:      len(s.controls),
		TotalEvaluations:   len(s.evaluations),
		RisksByTaxonomy:    make(map[string]int),
		ActionsByTaxonomy:  make(map[string]int),
		ControlsByTaxonomy: make(map[string]int),
		RisksByGroup:       make(map[string]int),
	}
	for _, r := range s.risks {
		stats.RisksByTaxonomy[r.Taxonomy]++
		if r.Group != "" {
			stats.RisksByGroup[r.Group]++
		}
	}
	for _, a := range s.actions {
		stats.ActionsByTaxonomy[a.Taxonomy]++
	}
	for _, c := range s.controls {
		stats.ControlsByTaxonomy[c.Taxonomy]++
	}
	return stats
}

// TaxonomyIDs returns the distinct taxonomy ids present in the risk set, sorted.
func (s *Store) TaxonomyIDs() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range s.risks {
		if _, ok := seen[r.Taxonomy]; ok {
			continue
		}
		seen[r.Taxonomy] = struct{}{}
		out = append(out, r.Taxonomy)
	}
	sort.Strings(out)
	return out
}
