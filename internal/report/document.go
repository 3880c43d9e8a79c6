package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/imishinist/perfreport/internal/models"
)

// Thresholds echoes the evaluation limits a document was produced with.
type Thresholds struct {
	ErrorRate *float64 `json:"error_rate_threshold,omitempty"`
	TPS       *float64 `json:"tps_threshold,omitempty"`
}

// Document is the machine readable report of one analysis run.
type Document struct {
	ID          string                   `json:"id"`
	GeneratedAt time.Time                `json:"generated_at"`
	Generator   string                   `json:"generator"`
	TargetTPS   float64                  `json:"target_tps"`
	Thresholds  Thresholds               `json:"thresholds"`
	Requests    []*models.AnalysisResult `json:"requests"`
	Resources   []*models.ResourceResult `json:"resources"`
	Suites      []Suite                  `json:"suites"`
	Overall     Rollup                   `json:"overall"`
}

// NewDocument builds a document from results in their given order.
func NewDocument(generator string, targetTPS float64, th Thresholds, results []models.Result, now time.Time) *Document {
	doc := &Document{
		ID:          uuid.NewString(),
		GeneratedAt: now,
		Generator:   generator,
		TargetTPS:   targetTPS,
		Thresholds:  th,
		Requests:    []*models.AnalysisResult{},
		Resources:   []*models.ResourceResult{},
	}
	for _, result := range results {
		switch r := result.(type) {
		case *models.AnalysisResult:
			doc.Requests = append(doc.Requests, r)
		case *models.ResourceResult:
			doc.Resources = append(doc.Resources, r)
		}
	}
	doc.Suites, doc.Overall = GroupSuites(results)
	return doc
}

// Results returns request results followed by resource results.
func (d *Document) Results() []models.Result {
	results := make([]models.Result, 0, len(d.Requests)+len(d.Resources))
	for _, r := range d.Requests {
		results = append(results, r)
	}
	for _, r := range d.Resources {
		results = append(results, r)
	}
	return results
}

// Resource returns the resource result paired with the request test name,
// or nil.
func (d *Document) Resource(test string) *models.ResourceResult {
	for _, r := range d.Resources {
		if r.TestName == test+ResourceSuffix {
			return r
		}
	}
	return nil
}

// FileName is the report file name for a document generated at t. A run
// without results is marked in the name.
func (d *Document) FileName() string {
	prefix := "report"
	if len(d.Requests) == 0 && len(d.Resources) == 0 {
		prefix = "no_results_report"
	}
	return fmt.Sprintf("%s_%s.json", prefix, d.GeneratedAt.Format("20060102_150405"))
}

// WriteDocument writes d into dir and returns the file path.
func WriteDocument(dir string, d *Document) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	path := filepath.Join(dir, d.FileName())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// ReadDocument loads a document written by WriteDocument.
func ReadDocument(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer file.Close()

	var d Document
	if err := json.NewDecoder(file).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &d, nil
}
