// Package store persists identification runs for audit. SQLite via GORM; a
// single writer mutex keeps concurrent request handlers off SQLite's locking
// edge cases.
package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Analysis{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// GORM exposes the raw gorm.DB handle.
func (d *Database) GORM() *gorm.DB {
	return d.gorm
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveAnalysis inserts or updates the analysis row for its use case.
func (d *Database) SaveAnalysis(analysis *Analysis) error {
	if analysis == nil {
		return errors.New("analysis is nil")
	}
	analysis.UseCaseTitle = strings.TrimSpace(analysis.UseCaseTitle)
	analysis.UseCaseKey = normalizeUseCaseKey(analysis.UseCaseTitle)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "use_case_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"use_case_title",
			"use_case_type",
			"is_gen_ai",
			"is_agentic_ai",
			"taxonomy",
			"risk_ids_json",
			"mitigations_json",
			"controls_json",
			"evaluations_json",
			"risk_count",
			"llm_confidence",
			"raw_response",
			"processing_ms",
			"updated_at",
		}),
	}).Create(analysis).Error
}

// GetAnalysis retrieves one analysis by id.
func (d *Database) GetAnalysis(id string) (*Analysis, error) {
	var analysis Analysis
	if err := d.gorm.First(&analysis, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &analysis, nil
}

// AnalysisQuery encapsulates filters and pagination for listing analyses.
type AnalysisQuery struct {
	Query       string
	UseCaseType string
	Taxonomy    string
	GenAIOnly   bool
	Offset      int
	Limit       int
}

// ListAnalyses returns paginated analysis rows, newest first.
func (d *Database) ListAnalyses(opts AnalysisQuery) ([]Analysis, int64, error) {
	var total int64
	base := d.gorm.Model(&Analysis{})
	if opts.Query != "" {
		like := fmt.Sprintf("%%%s%%", opts.Query)
		base = base.Where("use_case_title LIKE ?", like)
	}
	if t := strings.TrimSpace(opts.UseCaseType); t != "" {
		base = base.Where("use_case_type = ?", t)
	}
	if t := strings.TrimSpace(opts.Taxonomy); t != "" {
		base = base.Where("taxonomy = ?", t)
	}
	if opts.GenAIOnly {
		base = base.Where("is_gen_ai = ?", true)
	}

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Order("updated_at DESC").Offset(opts.Offset)
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var rows []Analysis
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountAnalyses returns the number of persisted analyses.
func (d *Database) CountAnalyses() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Analysis{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func normalizeUseCaseKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
