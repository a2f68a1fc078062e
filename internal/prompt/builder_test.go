package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"ai-risk-pipeline/internal/catalog"
)

func TestCatalogExcerptTruncatesDescriptions(t *testing.T) {
	long := strings.Repeat("a", 500)
	risks := []catalog.Risk{
		{ID: "r-1", Name: "Hallucination", Description: long},
		{ID: "r-2", Name: "Toxic output", Description: "short"},
	}

	excerpt := CatalogExcerpt(risks, 0)
	lines := strings.Split(excerpt, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines got %d", len(lines))
	}
	if want := "1. Hallucination: " + strings.Repeat("a", 200) + "..."; lines[0] != want {
		t.Fatalf("long description not truncated: %q", lines[0])
	}
	if lines[1] != "2. Toxic output: short..." {
		t.Fatalf("unexpected short line: %q", lines[1])
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		budget int
		want   string
	}{
		{"ascii exact", "abcdef", 4, "abcd"},
		{"under budget", "abc", 10, "abc"},
		{"multibyte mid-rune", strings.Repeat("你", 100), 200, strings.Repeat("你", 66)},
		{"accented", strings.Repeat("é", 5), 7, strings.Repeat("é", 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.text, tt.budget)
			if got != tt.want {
				t.Fatalf("truncate = %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestCatalogExcerptCapsEntries(t *testing.T) {
	var risks []catalog.Risk
	for i := 0; i < 30; i++ {
		risks = append(risks, catalog.Risk{ID: "r", Name: "Risk", Description: "d"})
	}
	excerpt := CatalogExcerpt(risks, 10)
	if got := len(strings.Split(excerpt, "\n")); got != 10 {
		t.Fatalf("expected 10 lines got %d", got)
	}
}

func TestIdentificationPromptContents(t *testing.T) {
	excerpt := CatalogExcerpt([]catalog.Risk{{ID: "r-1", Name: "Hallucination", Description: "Inaccurate content."}}, 0)
	p := Identification(excerpt, "Use Case: Medical chatbot")

	for _, fragment := range []string{
		"1. Hallucination: Inaccurate content....",
		"Example 1:",
		"Medical chatbot for patient triage",
		"Use Case: Medical chatbot",
		`["Risk name 1", "Risk name 2", ...]`,
	} {
		if !strings.Contains(p, fragment) {
			t.Fatalf("prompt missing %q", fragment)
		}
	}

	// Catalog must precede examples, examples precede the use case.
	catalogIdx := strings.Index(p, "## Risk Catalog")
	examplesIdx := strings.Index(p, "## Examples")
	useCaseIdx := strings.Index(p, "## Use Case to Analyze")
	if !(catalogIdx < examplesIdx && examplesIdx < useCaseIdx) {
		t.Fatal("prompt sections out of order")
	}
}

func TestFewShotExamplesRendersAll(t *testing.T) {
	examples := FewShotExamples()
	for _, fragment := range []string{"Example 1:", "Example 5:", `"Hallucination"`, "Reasoning:"} {
		if !strings.Contains(examples, fragment) {
			t.Fatalf("examples missing %q", fragment)
		}
	}
}

func TestSearchPromptCapsCatalog(t *testing.T) {
	var risks []catalog.Risk
	for i := 0; i < SearchCatalogCap+50; i++ {
		risks = append(risks, catalog.Risk{ID: "r", Name: "Risk", Description: "d"})
	}
	p := Search("bias in hiring", risks, 20)

	if strings.Contains(p, "501. ") {
		t.Fatal("search catalog not capped")
	}
	for _, fragment := range []string{`"bias in hiring"`, "TOP 20", `[{"id": "risk-id-here", "score": 95}, ...]`} {
		if !strings.Contains(p, fragment) {
			t.Fatalf("search prompt missing %q", fragment)
		}
	}
}

func TestSearchPromptLineFormat(t *testing.T) {
	p := Search("privacy", []catalog.Risk{{ID: "atlas-privacy", Name: "Data privacy rights", Description: "Privacy obligations."}}, 5)
	if !strings.Contains(p, "1. [atlas-privacy] Data privacy rights: Privacy obligations.") {
		t.Fatalf("unexpected catalog line in:\n%s", p)
	}
}
