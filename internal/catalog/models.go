package catalog

// Taxonomy identifies a source risk framework (e.g. a regulatory catalog).
type Taxonomy struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	URL         string `yaml:"url,omitempty" json:"url,omitempty"`
}

// RiskGroup clusters related risks within a taxonomy.
type RiskGroup struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Taxonomy    string `yaml:"isDefinedByTaxonomy" json:"taxonomy"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Risk is a single named potential harm or failure mode an AI system might exhibit.
type Risk struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Tag         string `yaml:"tag,omitempty" json:"tag,omitempty"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Taxonomy    string `yaml:"isDefinedByTaxonomy" json:"taxonomy"`
	Group       string `yaml:"isPartOf,omitempty" json:"group,omitempty"`
	Concern     string `yaml:"concern,omitempty" json:"concern,omitempty"`
}

// Action is a recommended mitigation that reduces a risk's likelihood or impact.
type Action struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description"`
	Taxonomy     string   `yaml:"isDefinedByTaxonomy,omitempty" json:"taxonomy,omitempty"`
	RelatedRisks []string `yaml:"hasRelatedRisk,omitempty" json:"relatedRisks,omitempty"`
}

// Control is a governance mechanism associated with managing one or more risks.
type Control struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description"`
	Taxonomy     string   `yaml:"isDefinedByTaxonomy,omitempty" json:"taxonomy,omitempty"`
	DetectsRisks []string `yaml:"detectsRisk,omitempty" json:"detectsRisks,omitempty"`
}

// Evaluation is a benchmark used to assess whether a risk is present or mitigated.
type Evaluation struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Description   string   `yaml:"description,omitempty" json:"description,omitempty"`
	URL           string   `yaml:"url,omitempty" json:"url,omitempty"`
	AssessesRisks []string `yaml:"assessesRisk,omitempty" json:"assessesRisks,omitempty"`
}

// EnrichedRisk is a request-scoped view of a risk bundled with its resolved
// taxonomy metadata and related catalog entries. It is never persisted.
type EnrichedRisk struct {
	Risk
	TaxonomyName       string       `json:"taxonomyName,omitempty"`
	GroupName          string       `json:"riskGroupName,omitempty"`
	RelatedActions     []Action     `json:"relatedActions,omitempty"`
	RelatedControls    []Control    `json:"relatedControls,omitempty"`
	RelatedEvaluations []Evaluation `json:"relatedEvaluations,omitempty"`
}

// Statistics summarises catalog volume per entity kind and taxonomy.
type Statistics struct {
	TotalRisks         int            `json:"totalRisks"`
	TotalActions       int            `json:"totalActions"`
	TotalControls      int            `json:"totalControls"`
	TotalEvaluations   int            `json:"totalEvaluations"`
	RisksByTaxonomy    map[string]int `json:"risksByTaxonomy"`
	ActionsByTaxonomy  map[string]int `json:"actionsByTaxonomy"`
	ControlsByTaxonomy map[string]int `json:"controlsByTaxonomy"`
	RisksByGroup       map[string]int `json:"risksByGroup"`
}
