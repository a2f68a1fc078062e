package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Analysis is one persisted identification run: what use case was analyzed,
// which risks came back, and how the model behaved. Rows are keyed by the
// normalized use-case title so re-running the same use case updates in place.
type Analysis struct {
	ID              string `gorm:"primaryKey;size:64"`
	UseCaseKey      string `gorm:"size:255;uniqueIndex"`
	UseCaseTitle    string `gorm:"size:255;index"`
	UseCaseType     string `gorm:"size:64;index"`
	IsGenAI         bool
	IsAgenticAI     bool
	Taxonomy        string `gorm:"size:64;index"`
	RiskIDsJSON     string `gorm:"type:text"`
	MitigationsJSON string `gorm:"type:text"`
	ControlsJSON    string `gorm:"type:text"`
	EvaluationsJSON string `gorm:"type:text"`
	RiskCount       int    `gorm:"index"`
	LLMConfidence   float64
	RawResponse     string `gorm:"type:text"`
	ProcessingMs    int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SetRiskIDs persists the identified risk ids as JSON.
func (a *Analysis) SetRiskIDs(ids []string) {
	a.RiskIDsJSON = marshalIDs(ids)
	a.RiskCount = len(ids)
}

// RiskIDs returns the unmarshalled risk ids.
func (a *Analysis) RiskIDs() []string {
	return unmarshalIDs(a.RiskIDsJSON)
}

// SetMitigationIDs persists the recommended action ids as JSON.
func (a *Analysis) SetMitigationIDs(ids []string) {
	a.MitigationsJSON = marshalIDs(ids)
}

// MitigationIDs returns the decoded action ids.
func (a *Analysis) MitigationIDs() []string {
	return unmarshalIDs(a.MitigationsJSON)
}

// SetControlIDs persists the recommended control ids as JSON.
func (a *Analysis) SetControlIDs(ids []string) {
	a.ControlsJSON = marshalIDs(ids)
}

// ControlIDs returns the decoded control ids.
func (a *Analysis) ControlIDs() []string {
	return unmarshalIDs(a.ControlsJSON)
}

// SetEvaluationIDs persists the recommended evaluation ids as JSON.
func (a *Analysis) SetEvaluationIDs(ids []string) {
	a.EvaluationsJSON = marshalIDs(ids)
}

// EvaluationIDs returns the decoded evaluation ids.
func (a *Analysis) EvaluationIDs() []string {
	return unmarshalIDs(a.EvaluationsJSON)
}

func marshalIDs(ids []string) string {
	if ids == nil {
		return "[]"
	}
	payload, _ := json.Marshal(ids)
	return string(payload)
}

func unmarshalIDs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
