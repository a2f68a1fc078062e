package reconcile

import (
	"encoding/json"
	"regexp"
	"strings"

	"ai-risk-pipeline/internal/catalog"
)

// Shape names the structural form the raw model response was parsed under.
// The parser tries each shape in a fixed priority order.
type Shape int

const (
	// ShapeNone means no candidates could be extracted.
	ShapeNone Shape = iota
	// ShapeArray is a bare JSON array of strings.
	ShapeArray
	// ShapeWrapped is an object carrying the array under a "risks" key.
	ShapeWrapped
	// ShapeKeys is an object whose keys are the risk names, with explanations
	// as values. Some models answer this way despite the format instruction.
	ShapeKeys
	// ShapeExtracted means strict parsing failed and the candidates came from
	// the first bracketed substring of the response.
	ShapeExtracted
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeWrapped:
		return "wrapped"
	case ShapeKeys:
		return "keys"
	case ShapeExtracted:
		return "extracted"
	default:
		return "none"
	}
}

var bracketed = regexp.MustCompile(`\[[\s\S]*\]`)

// StripFences removes a surrounding markdown code fence from the response, if
// present, so the remainder can be parsed as JSON.
func StripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexRune(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		// Single-line fence like ```json [...] ```
		trimmed = strings.TrimPrefix(trimmed, "json")
	}
	if strings.HasSuffix(trimmed, "```") {
		trimmed = trimmed[:len(trimmed)-3]
	}
	return strings.TrimSpace(trimmed)
}

// ParseCandidates extracts the candidate risk names from the raw model
// response and reports which structural shape matched. Parse failure is not
// an error; it yields an empty candidate list.
func ParseCandidates(raw string) ([]string, Shape) {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return nil, ShapeNone
	}

	var arr []string
	if err := json.Unmarshal([]byte(cleaned), &arr); err == nil {
		return arr, ShapeArray
	}

	var wrapped struct {
		Risks []string `json:"risks"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err == nil && wrapped.Risks != nil {
		return wrapped.Risks, ShapeWrapped
	}

	if names, ok := topLevelKeys(cleaned); ok {
		return names, ShapeKeys
	}

	if match := bracketed.FindString(cleaned); match != "" {
		if err := json.Unmarshal([]byte(match), &arr); err == nil {
			return arr, ShapeExtracted
		}
	}
	return nil, ShapeNone
}

// topLevelKeys decodes an object's keys in document order. Map unmarshalling
// would shuffle them, which makes downstream ordering unstable.
func topLevelKeys(cleaned string) ([]string, bool) {
	if !json.Valid([]byte(cleaned)) {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(cleaned))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false
	}
	var names []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		names = append(names, key)
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			return nil, false
		}
	}
	return names, true
}

// NamesMatch reports whether a model-supplied candidate refers to the given
// catalog name. Matching is case-insensitive and substring-tolerant in both
// directions because models paraphrase and truncate catalog names.
func NamesMatch(candidate, catalogName string) bool {
	c := strings.ToLower(strings.TrimSpace(candidate))
	n := strings.ToLower(catalogName)
	if c == "" || n == "" {
		return false
	}
	return c == n || strings.Contains(n, c) || strings.Contains(c, n)
}

// Result is the reconciled outcome: the catalog risks the response resolved
// to, plus a confidence figure measuring how much of the model output was
// usable. Confidence is matched candidates over total candidates; it says
// nothing about ground-truth accuracy.
type Result struct {
	Risks      []catalog.Risk
	Matched    []string
	Raw        []string
	Shape      Shape
	Confidence float64
}

// Reconcile parses the raw response and resolves each candidate against the
// catalog vocabulary. A candidate matching several catalog risks yields all
// of them; over-inclusion is preferred to silently dropping a hit.
func Reconcile(raw string, risks []catalog.Risk) Result {
	candidates, shape := ParseCandidates(raw)
	result := Result{Raw: candidates, Shape: shape}

	seen := make(map[string]struct{})
	for _, candidate := range candidates {
		matched := false
		for _, risk := range risks {
			if !NamesMatch(candidate, risk.Name) {
				continue
			}
			matched = true
			if _, ok := seen[risk.ID]; ok {
				continue
			}
			seen[risk.ID] = struct{}{}
			result.Risks = append(result.Risks, risk)
		}
		if matched {
			result.Matched = append(result.Matched, candidate)
		}
	}

	total := len(candidates)
	if total < 1 {
		total = 1
	}
	result.Confidence = float64(len(result.Matched)) / float64(total)
	return result
}
