// Command catalog loads a risk catalog directory, validates its
// cross-references, and reports volume statistics. Run it after editing the
// YAML files to catch dangling references before the server picks them up.
package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"ai-risk-pipeline/internal/catalog"
)

func main() {
	var (
		dataDir    = flag.String("data", filepath.Join("internal", "catalog", "data"), "Path to the catalog YAML directory")
		outputPath = flag.String("output", "", "Optional path to write the catalog statistics as JSON")
		strict     = flag.Bool("strict", false, "Exit non-zero when dangling references are found")
	)
	flag.Parse()

	store, err := catalog.Load(*dataDir)
	if err != nil {
		logrus.Fatalf("load catalog: %v", err)
	}

	stats := store.Statistics()
	logrus.WithFields(logrus.Fields{
		"risks":       stats.TotalRisks,
		"actions":     stats.TotalActions,
		"controls":    stats.TotalControls,
		"evaluations": stats.TotalEvaluations,
		"taxonomies":  len(store.TaxonomyIDs()),
	}).Info("catalog loaded")

	dangling := validate(store)
	for _, problem := range dangling {
		logrus.Warn(problem)
	}

	if *outputPath != "" {
		if err := writeStats(*outputPath, stats); err != nil {
			logrus.Fatalf("write statistics: %v", err)
		}
		logrus.WithField("path", *outputPath).Info("statistics written to file")
	}

	if *strict && len(dangling) > 0 {
		logrus.Fatalf("catalog validation failed: %d dangling references", len(dangling))
	}
	logrus.Info("catalog validation complete")
}

// validate reports references that resolve to no risk, and risks that point
// at an unknown taxonomy.
func validate(store *catalog.Store) []string {
	var problems []string

	resolves := func(ref string) bool {
		if _, ok := store.RiskByID(ref); ok {
			return true
		}
		if _, ok := store.RiskByTag(ref); ok {
			return true
		}
		for _, risk := range store.AllRisks(nil) {
			if strings.Contains(ref, risk.Tag) && risk.Tag != "" {
				return true
			}
		}
		return false
	}

	for _, action := range store.AllActions() {
		for _, ref := range action.RelatedRisks {
			if !resolves(ref) {
				problems = append(problems, "action "+action.ID+" references unknown risk "+ref)
			}
		}
	}
	for _, control := range store.AllControls() {
		for _, ref := range control.DetectsRisks {
			if !resolves(ref) {
				problems = append(problems, "control "+control.ID+" references unknown risk "+ref)
			}
		}
	}
	for _, eval := range store.AllEvaluations() {
		for _, ref := range eval.AssessesRisks {
			if !resolves(ref) {
				problems = append(problems, "evaluation "+eval.ID+" references unknown risk "+ref)
			}
		}
	}
	for _, risk := range store.AllRisks(nil) {
		if risk.Taxonomy == "" {
			continue
		}
		if _, ok := store.TaxonomyByID(risk.Taxonomy); !ok {
			problems = append(problems, "risk "+risk.ID+" references unknown taxonomy "+risk.Taxonomy)
		}
	}
	return problems
}

func writeStats(path string, stats catalog.Statistics) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(stats)
}
