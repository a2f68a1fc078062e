package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-risk-pipeline/internal/ai"
	"ai-risk-pipeline/internal/catalog"
	"ai-risk-pipeline/internal/usecase"
)

type fakeGateway struct {
	enabled    bool
	response   string
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeGateway) Enabled() bool { return f.enabled }

func (f *fakeGateway) Complete(_ context.Context, system, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	return f.response, f.err
}

func testStore(t *testing.T) *catalog.Store {
	t.Helper()
	return catalog.NewStore(catalog.Data{
		Taxonomies: []catalog.Taxonomy{{ID: "ibm-risk-atlas", Name: "IBM AI Risk Atlas"}},
		Risks: []catalog.Risk{
			{ID: "r-halluc", Name: "Hallucination", Description: "Model invents plausible falsehoods", Tag: "hallucination", Taxonomy: "ibm-risk-atlas"},
			{ID: "r-toxic", Name: "Toxic output", Description: "Model produces harmful output text", Tag: "toxic-output", Taxonomy: "ibm-risk-atlas"},
			{ID: "r-privacy", Name: "Data privacy rights", Description: "Mishandling of personal data", Tag: "data-privacy-rights", Taxonomy: "ibm-risk-atlas"},
			{ID: "r-inject", Name: "Prompt injection", Description: "Crafted input subverts instructions", Tag: "prompt-injection", Taxonomy: "owasp-llm-2.0"},
		},
		Actions: []catalog.Action{
			{ID: "a-ground", Name: "Ground responses", Description: "Ground answers in verified sources", RelatedRisks: []string{"hallucination"}},
		},
		Controls: []catalog.Control{
			{ID: "c-harm", Name: "Harm detector", Description: "Flags harmful content", DetectsRisks: []string{"toxic-output"}},
		},
		Evaluations: []catalog.Evaluation{
			{ID: "e-halu", Name: "HaluEval", Description: "Hallucination benchmark", AssessesRisks: []string{"hallucination"}},
		},
	})
}

func medicalChatbot() usecase.Input {
	return usecase.Input{
		Title:       "Medical advice chatbot",
		Description: "A chatbot that answers patient questions about symptoms and medication",
		Technical:   &usecase.TechnicalHints{ModelTypes: []string{"LLM"}, ModelProvider: "openai"},
		Data:        &usecase.DataHints{DataTypes: []string{"health records"}},
	}
}

func TestIdentifyEndToEnd(t *testing.T) {
	gateway := &fakeGateway{
		enabled:  true,
		response: `["Hallucination", "Toxic output", "Data privacy rights"]`,
	}
	engine := NewEngine(testStore(t), gateway)

	got, err := engine.Identify(context.Background(), medicalChatbot())
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}

	if len(got.IdentifiedRisks) != 3 {
		t.Fatalf("identified %d risks, want 3", len(got.IdentifiedRisks))
	}
	if got.Analysis.LLMConfidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", got.Analysis.LLMConfidence)
	}
	if !got.Analysis.IsGenAI {
		t.Fatal("LLM-backed chatbot should classify as GenAI")
	}
	if got.Analysis.IsAgenticAI {
		t.Fatal("chatbot without agent hints should not classify as agentic")
	}
	if got.Analysis.TotalRisksAnalyzed != 3 {
		t.Fatalf("analyzed %d risks, want the 3 in the default taxonomy", got.Analysis.TotalRisksAnalyzed)
	}
	if len(got.Analysis.MatchedTaxonomies) != 1 || got.Analysis.MatchedTaxonomies[0] != "ibm-risk-atlas" {
		t.Fatalf("matchedTaxonomies = %v", got.Analysis.MatchedTaxonomies)
	}
	if len(got.Mitigations) == 0 || got.Mitigations[0].ID != "a-ground" {
		t.Fatalf("mitigations = %+v, want a-ground first", got.Mitigations)
	}
	if got.RawLLMResponse != gateway.response {
		t.Fatal("raw model response not preserved")
	}
	if got.IdentifiedRisks[0].TaxonomyName != "IBM AI Risk Atlas" {
		t.Fatalf("taxonomy name not resolved: %+v", got.IdentifiedRisks[0])
	}
}

func TestIdentifyPromptContainsCatalogAndUseCase(t *testing.T) {
	gateway := &fakeGateway{enabled: true, response: `[]`}
	engine := NewEngine(testStore(t), gateway)

	if _, err := engine.Identify(context.Background(), medicalChatbot()); err != nil {
		t.Fatalf("Identify: %v", err)
	}

	for _, want := range []string{"Hallucination", "Medical advice chatbot", "## Risk Catalog", "## Examples"} {
		if !strings.Contains(gateway.lastUser, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	// Default taxonomy scope excludes other frameworks from the excerpt.
	if strings.Contains(gateway.lastUser, "Crafted input subverts instructions") {
		t.Error("prompt should not list risks outside the selected taxonomy")
	}
}

func TestIdentifyUnusableResponse(t *testing.T) {
	gateway := &fakeGateway{enabled: true, response: "not json at all"}
	engine := NewEngine(testStore(t), gateway)

	got, err := engine.Identify(context.Background(), medicalChatbot())
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if len(got.IdentifiedRisks) != 0 {
		t.Fatalf("identified %d risks from garbage", len(got.IdentifiedRisks))
	}
	if got.Analysis.LLMConfidence != 0 {
		t.Fatalf("confidence = %v, want 0", got.Analysis.LLMConfidence)
	}
	if len(got.Mitigations) != 0 {
		t.Fatalf("mitigations = %v, want none without matched risks", got.Mitigations)
	}
}

func TestIdentifyPropagatesGatewayError(t *testing.T) {
	wantErr := errors.New("upstream timeout")
	gateway := &fakeGateway{enabled: true, err: wantErr}
	engine := NewEngine(testStore(t), gateway)

	_, err := engine.Identify(context.Background(), medicalChatbot())
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped %v", err, wantErr)
	}
}

func TestIdentifyDisabledGateway(t *testing.T) {
	engine := NewEngine(testStore(t), &fakeGateway{enabled: false})

	_, err := engine.Identify(context.Background(), medicalChatbot())
	if !errors.Is(err, ai.ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestIdentifyTaxonomyOverride(t *testing.T) {
	gateway := &fakeGateway{enabled: true, response: `["Prompt injection"]`}
	engine := NewEngine(testStore(t), gateway, WithTaxonomy("owasp-llm-2.0"))

	got, err := engine.Identify(context.Background(), medicalChatbot())
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got.Analysis.TotalRisksAnalyzed != 1 {
		t.Fatalf("analyzed %d risks, want 1 in owasp-llm-2.0", got.Analysis.TotalRisksAnalyzed)
	}
	if len(got.IdentifiedRisks) != 1 || got.IdentifiedRisks[0].ID != "r-inject" {
		t.Fatalf("identified = %+v, want r-inject", got.IdentifiedRisks)
	}
}

func TestIdentifyUnknownTaxonomyFallsBackToFullCatalog(t *testing.T) {
	gateway := &fakeGateway{enabled: true, response: `["Hallucination"]`}
	engine := NewEngine(testStore(t), gateway, WithTaxonomy("no-such-framework"))

	got, err := engine.Identify(context.Background(), medicalChatbot())
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got.Analysis.TotalRisksAnalyzed != 4 {
		t.Fatalf("analyzed %d risks, want full catalog", got.Analysis.TotalRisksAnalyzed)
	}
}
