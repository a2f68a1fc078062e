package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"ai-risk-pipeline/internal/catalog"
)

const testCatalog = `
taxonomies:
  - id: ibm-risk-atlas
    name: IBM AI Risk Atlas
risks:
  - id: r-halluc
    name: Hallucination
    description: Model invents plausible falsehoods
    tag: hallucination
    isDefinedByTaxonomy: ibm-risk-atlas
  - id: r-privacy
    name: Data privacy rights
    description: Mishandling of personal data
    tag: data-privacy-rights
    isDefinedByTaxonomy: ibm-risk-atlas
actions:
  - id: a-ground
    name: Ground responses
    description: Ground answers in verified sources
    hasRelatedRisk: [hallucination]
riskcontrols:
  - id: c-halluc
    name: Groundedness detector
    description: Flags unsupported statements
    detectsRisk: [hallucination]
evaluations:
  - id: e-halu
    name: HaluEval
    description: Hallucination benchmark
    assessesRisk: [hallucination]
`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "catalog.yaml"), []byte(testCatalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	catalog.Reset()
	t.Cleanup(catalog.Reset)

	server, err := NewServer(Config{
		DBPath:    filepath.Join(t.TempDir(), "test.db"),
		DataDir:   dataDir,
		SilentDB:  true,
		DisableAI: true,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	router, err := server.Router()
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndConfig(t *testing.T) {
	router := newTestRouter(t)

	if rec := doRequest(t, router, http.MethodGet, "/api/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("config = %d: %s", rec.Code, rec.Body.String())
	}
	var cfg map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg["ai_enabled"] != false {
		t.Fatal("ai_enabled should be false with AI disabled")
	}
	if cfg["total_risks"] != float64(2) {
		t.Fatalf("total_risks = %v", cfg["total_risks"])
	}
}

func TestIdentifyWithoutGateway(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/risks/identify",
		`{"title": "Medical chatbot", "description": "Answers patient questions"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d, want 503 with gateway disabled", rec.Code)
	}
}

func TestIdentifyValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/risks/identify", `{"description": "no title"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400 without title", rec.Code)
	}
}

func TestSearchFallbackOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/risks/search?q=hallucination", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200 even without a gateway", rec.Code)
	}
	var result struct {
		Risks        []catalog.EnrichedRisk `json:"risks"`
		TotalMatched int                    `json:"totalMatched"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.TotalMatched != 1 || result.Risks[0].ID != "r-halluc" {
		t.Fatalf("result = %+v", result)
	}

	if rec := doRequest(t, router, http.MethodGet, "/api/risks/search", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing q: code = %d, want 400", rec.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/catalog/risks", 2},
		{"/api/catalog/actions", 1},
		{"/api/catalog/controls", 1},
		{"/api/catalog/evaluations", 1},
		{"/api/catalog/taxonomies", 1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, tt.path, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("code = %d", rec.Code)
			}
			var body struct {
				Total int `json:"total"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Total != tt.want {
				t.Fatalf("total = %d, want %d", body.Total, tt.want)
			}
		})
	}
}

func TestGetRiskByIDOrTag(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/catalog/risks/r-halluc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("by id: code = %d", rec.Code)
	}
	var enriched catalog.EnrichedRisk
	if err := json.Unmarshal(rec.Body.Bytes(), &enriched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if enriched.TaxonomyName != "IBM AI Risk Atlas" || len(enriched.RelatedActions) != 1 {
		t.Fatalf("enriched = %+v", enriched)
	}
	if len(enriched.RelatedControls) != 1 || enriched.RelatedControls[0].ID != "c-halluc" {
		t.Fatalf("related controls = %+v, want c-halluc", enriched.RelatedControls)
	}
	if len(enriched.RelatedEvaluations) != 1 || enriched.RelatedEvaluations[0].ID != "e-halu" {
		t.Fatalf("related evaluations = %+v, want e-halu", enriched.RelatedEvaluations)
	}

	if rec := doRequest(t, router, http.MethodGet, "/api/catalog/risks/hallucination", ""); rec.Code != http.StatusOK {
		t.Fatalf("by tag: code = %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodGet, "/api/catalog/risks/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing: code = %d, want 404", rec.Code)
	}
}

func TestRecommendEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/catalog/recommend", `{"isGenAI": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total == 0 {
		t.Fatal("expected at least one recommendation for a GenAI system")
	}
}

func TestAnalysesEmpty(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/analyses", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var body AnalysesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 0 || len(body.Items) != 0 {
		t.Fatalf("body = %+v, want empty", body)
	}

	if rec := doRequest(t, router, http.MethodGet, "/api/analyses/12345", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing analysis: code = %d, want 404", rec.Code)
	}
}
