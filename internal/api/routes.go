// Package api exposes the identification pipeline, semantic search, and the
// risk catalog over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ai-risk-pipeline/internal/ai"
	"ai-risk-pipeline/internal/catalog"
	"ai-risk-pipeline/internal/pipeline"
	"ai-risk-pipeline/internal/search"
	"ai-risk-pipeline/internal/store"
	"ai-risk-pipeline/internal/usecase"
	"ai-risk-pipeline/internal/util"
)

// Config defines server dependencies.
type Config struct {
	DBPath         string
	DataDir        string
	AllowedOrigins []string
	SilentDB       bool
	AIConfig       ai.Config
	DisableAI      bool
	Taxonomy       string
	RetryAttempts  int
	RetryBackoff   time.Duration
}

// Server wires HTTP handlers with the catalog, pipeline, and persistence.
type Server struct {
	db             *store.Database
	catalog        *catalog.Store
	gateway        ai.Completer
	searcher       *search.Searcher
	taxonomy       string
	allowedOrigins []string
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	if cfg.DataDir != "" {
		catalog.SetDefaultDir(cfg.DataDir)
	}
	catalogStore, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	var gateway ai.Completer
	if cfg.DisableAI {
		logrus.Info("model gateway disabled via configuration")
	} else {
		client, err := ai.NewClient(cfg.AIConfig)
		switch {
		case err == nil:
			gateway = ai.WithRetry(client, cfg.RetryAttempts, cfg.RetryBackoff)
			logrus.WithField("model", cfg.AIConfig.Model).Info("model gateway enabled")
		case errors.Is(err, ai.ErrDisabled):
			logrus.Info("model gateway disabled - no API key configured")
		default:
			return nil, fmt.Errorf("ai client: %w", err)
		}
	}

	taxonomy := cfg.Taxonomy
	if taxonomy == "" {
		taxonomy = pipeline.DefaultTaxonomy
	}

	return &Server{
		db:             db,
		catalog:        catalogStore,
		gateway:        gateway,
		searcher:       search.NewSearcher(catalogStore, gateway),
		taxonomy:       taxonomy,
		allowedOrigins: cfg.AllowedOrigins,
	}, nil
}

// Close releases the database handle.
func (s *Server) Close() error {
	return s.db.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.POST("/risks/identify", s.handleIdentify)
		api.GET("/risks/search", s.handleSearch)
		api.POST("/catalog/recommend", s.handleRecommend)
		api.GET("/catalog/risks", s.handleListRisks)
		api.GET("/catalog/risks/:id", s.handleGetRisk)
		api.GET("/catalog/actions", s.handleListActions)
		api.GET("/catalog/controls", s.handleListControls)
		api.GET("/catalog/evaluations", s.handleListEvaluations)
		api.GET("/catalog/taxonomies", s.handleListTaxonomies)
		api.GET("/catalog/statistics", s.handleStatistics)
		api.GET("/analyses", s.handleListAnalyses)
		api.GET("/analyses/:id", s.handleGetAnalysis)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	stats := s.catalog.Statistics()
	c.JSON(http.StatusOK, gin.H{
		"ai_enabled":       s.gateway != nil && s.gateway.Enabled(),
		"default_taxonomy": s.taxonomy,
		"taxonomies":       s.catalog.TaxonomyIDs(),
		"total_risks":      stats.TotalRisks,
	})
}

func (s *Server) handleIdentify(c *gin.Context) {
	var req IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("title is required"))
		return
	}

	taxonomy := req.Taxonomy
	if taxonomy == "" {
		taxonomy = s.taxonomy
	}
	engine := pipeline.NewEngine(s.catalog, s.gateway, pipeline.WithTaxonomy(taxonomy))

	timer := util.StartTimer()
	result, err := engine.Identify(c.Request.Context(), req.Input)
	if err != nil {
		if errors.Is(err, ai.ErrDisabled) {
			s.renderError(c, http.StatusServiceUnavailable, err)
		} else {
			s.renderError(c, http.StatusBadGateway, err)
		}
		return
	}
	elapsed := timer.ElapsedMs()

	analysisID := uuid.NewString()
	if err := s.saveAnalysis(analysisID, req.Input, taxonomy, result, elapsed); err != nil {
		logrus.WithError(err).Warn("persist analysis")
	}

	c.JSON(http.StatusOK, IdentifyResponse{
		ID:               analysisID,
		Result:           result,
		ProcessingTimeMs: elapsed,
	})
}

func (s *Server) saveAnalysis(id string, input usecase.Input, taxonomy string, result *pipeline.Result, elapsed int64) error {
	row := &store.Analysis{
		ID:            id,
		UseCaseTitle:  input.Title,
		UseCaseType:   result.Analysis.UseCaseType,
		IsGenAI:       result.Analysis.IsGenAI,
		IsAgenticAI:   result.Analysis.IsAgenticAI,
		Taxonomy:      taxonomy,
		LLMConfidence: result.Analysis.LLMConfidence,
		RawResponse:   result.RawLLMResponse,
		ProcessingMs:  elapsed,
	}
	riskIDs := make([]string, 0, len(result.IdentifiedRisks))
	for _, risk := range result.IdentifiedRisks {
		riskIDs = append(riskIDs, risk.ID)
	}
	row.SetRiskIDs(riskIDs)

	actionIDs := make([]string, 0, len(result.Mitigations))
	for _, action := range result.Mitigations {
		actionIDs = append(actionIDs, action.ID)
	}
	row.SetMitigationIDs(actionIDs)

	controlIDs := make([]string, 0, len(result.Controls))
	for _, control := range result.Controls {
		controlIDs = append(controlIDs, control.ID)
	}
	row.SetControlIDs(controlIDs)

	evalIDs := make([]string, 0, len(result.Evaluations))
	for _, eval := range result.Evaluations {
		evalIDs = append(evalIDs, eval.ID)
	}
	row.SetEvaluationIDs(evalIDs)

	return s.db.SaveAnalysis(row)
}

func (s *Server) handleSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("q is required"))
		return
	}

	opts := search.Options{}
	if raw := strings.TrimSpace(c.Query("taxonomies")); raw != "" {
		for _, taxonomy := range strings.Split(raw, ",") {
			if taxonomy = strings.TrimSpace(taxonomy); taxonomy != "" {
				opts.Taxonomies = append(opts.Taxonomies, taxonomy)
			}
		}
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		opts.Limit = limit
	}

	c.JSON(http.StatusOK, s.searcher.Search(c.Request.Context(), query, opts))
}

func (s *Server) handleRecommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	recommendations := s.catalog.RecommendRisks(req.Characteristics)
	if req.Limit > 0 && len(recommendations) > req.Limit {
		recommendations = recommendations[:req.Limit]
	}
	c.JSON(http.StatusOK, gin.H{"items": recommendations, "total": len(recommendations)})
}

func (s *Server) handleListRisks(c *gin.Context) {
	filter := &catalog.RiskFilter{
		Taxonomy: c.Query("taxonomy"),
		Group:    c.Query("group"),
		Tag:      c.Query("tag"),
		Type:     c.Query("type"),
		Search:   c.Query("search"),
	}
	risks := s.catalog.AllRisks(filter)
	c.JSON(http.StatusOK, gin.H{"items": risks, "total": len(risks)})
}

func (s *Server) handleGetRisk(c *gin.Context) {
	id := c.Param("id")
	risk, ok := s.catalog.RiskByID(id)
	if !ok {
		risk, ok = s.catalog.RiskByTag(id)
	}
	if !ok {
		s.renderError(c, http.StatusNotFound, fmt.Errorf("risk %s not found", id))
		return
	}
	c.JSON(http.StatusOK, s.catalog.EnrichRisk(risk))
}

func (s *Server) handleListActions(c *gin.Context) {
	actions := s.catalog.AllActions()
	c.JSON(http.StatusOK, gin.H{"items": actions, "total": len(actions)})
}

func (s *Server) handleListControls(c *gin.Context) {
	controls := s.catalog.AllControls()
	c.JSON(http.StatusOK, gin.H{"items": controls, "total": len(controls)})
}

func (s *Server) handleListEvaluations(c *gin.Context) {
	evaluations := s.catalog.AllEvaluations()
	c.JSON(http.StatusOK, gin.H{"items": evaluations, "total": len(evaluations)})
}

func (s *Server) handleListTaxonomies(c *gin.Context) {
	taxonomies := s.catalog.AllTaxonomies()
	c.JSON(http.StatusOK, gin.H{"items": taxonomies, "total": len(taxonomies)})
}

func (s *Server) handleStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.Statistics())
}

func (s *Server) handleListAnalyses(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = 25
	}

	opts := store.AnalysisQuery{
		Query:       c.Query("q"),
		UseCaseType: c.Query("type"),
		Taxonomy:    c.Query("taxonomy"),
		GenAIOnly:   c.Query("genai") == "true",
		Offset:      page * pageSize,
		Limit:       pageSize,
	}
	rows, total, err := s.db.ListAnalyses(opts)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]AnalysisDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, AnalysisFromModel(row))
	}
	c.JSON(http.StatusOK, AnalysesResponse{Items: dtos, Total: total})
}

func (s *Server) handleGetAnalysis(c *gin.Context) {
	row, err := s.db.GetAnalysis(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("analysis %s not found", c.Param("id")))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, AnalysisFromModel(*row))
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
