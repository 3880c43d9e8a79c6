package analysis

import (
	"fmt"

	"github.com/imishinist/perfreport/internal/models"
)

// Analyzer turns loaded tables into results.
type Analyzer struct {
	Thresholds Thresholds
	// SamplingInterval is the resource collector interval in seconds.
	SamplingInterval float64
}

func New(th Thresholds, samplingInterval float64) *Analyzer {
	return &Analyzer{Thresholds: th, SamplingInterval: samplingInterval}
}

// Analyze dispatches on the table variant.
func (a *Analyzer) Analyze(name string, table models.Table) (models.Result, error) {
	switch t := table.(type) {
	case *models.RequestTable:
		result, err := a.AnalyzeRequests(name, t.Records)
		if err != nil {
			return nil, err
		}
		return result, nil
	case *models.ResourceTable:
		result, err := AnalyzeResources(name, t.Snapshots, a.SamplingInterval)
		if err != nil {
			return nil, err
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported table type %T", table)
	}
}

// AnalyzeRequests computes the aggregates and the verdict of a request
// table.
func (a *Analyzer) AnalyzeRequests(name string, records []models.Record) (*models.AnalysisResult, error) {
	buckets, err := BucketBySecond(records)
	if err != nil {
		return nil, err
	}

	byAPI := GroupBy(records, func(r models.Record) string { return r.Label })

	result := &models.AnalysisResult{
		TestName:                  name,
		Endpoints:                 Keys(byAPI),
		TransactionCountPerAPI:    Reduce(byAPI, Count[models.Record]),
		ErrorCountPerAPI:          Reduce(byAPI, ErrorCount),
		OverallTransactionCount:   len(records),
		OverallErrorCount:         ErrorCount(records),
		DurationSeconds:           len(buckets),
		StartTimestampMs:          buckets[0].StartMs,
		TransactionCountPerSecond: make(map[int]int, len(buckets)),
		ErrorCountPerSecond:       make(map[int]int, len(buckets)),
		AvgResponseTimePerSecond:  make(map[int]models.Float, len(buckets)),
		OverallMaxResponseTime:    Max(records, Elapsed),
		OverallMinResponseTime:    Min(records, Elapsed),
		OverallAvgResponseTime:    Mean(records, Elapsed),
		MaxResponseTimePerAPI:     Reduce(byAPI, func(rows []models.Record) models.Float { return Max(rows, Elapsed) }),
		MinResponseTimePerAPI:     Reduce(byAPI, func(rows []models.Record) models.Float { return Min(rows, Elapsed) }),
		AvgResponseTimePerAPI:     Reduce(byAPI, func(rows []models.Record) models.Float { return Mean(rows, Elapsed) }),
		OverallPercentiles:        Percentiles(records),
		PercentilesPerAPI:         Reduce(byAPI, Percentiles),
	}

	tps := make([]int, len(buckets))
	for i, b := range buckets {
		tps[i] = len(b.Records)
		result.TransactionCountPerSecond[b.Offset] = len(b.Records)
		result.ErrorCountPerSecond[b.Offset] = ErrorCount(b.Records)
		result.AvgResponseTimePerSecond[b.Offset] = Mean(b.Records, Elapsed)
	}

	eval, err := Evaluate(result.OverallErrorCount, result.OverallTransactionCount, tps, a.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %s: %w", name, err)
	}
	result.Verdict = eval.Verdict
	result.VerdictReason = eval.Reason

	return result, nil
}
