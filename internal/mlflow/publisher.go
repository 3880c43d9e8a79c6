package mlflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/imishinist/perfreport/internal/analysis"
	"github.com/imishinist/perfreport/internal/models"
	"github.com/imishinist/perfreport/internal/report"
	timeutils "github.com/imishinist/perfreport/internal/time"
)

// Tracker is the part of Client the publisher needs.
type Tracker interface {
	CreateRun(ctx context.Context, config *models.RunConfig) (*models.RunInfo, error)
	LogParams(ctx context.Context, runID string, params []models.Parameter) error
	LogBatchMetrics(ctx context.Context, runID string, metrics []models.Metric) error
	UpdateRun(ctx context.Context, runID string, status models.RunStatus, endTime time.Time) error
	UploadArtifact(ctx context.Context, runID, filePath, artifactPath string) error
}

var _ Tracker = (*Client)(nil)

// Publisher records every request result of a report as one MLflow run.
type Publisher struct {
	tracker      Tracker
	experimentID string
	tags         map[string]string
	logger       *zap.Logger
}

func NewPublisher(tracker Tracker, experimentID string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{tracker: tracker, experimentID: experimentID, logger: logger}
}

// WithTags adds tags to every run. Tags set by the publisher itself win.
func (p *Publisher) WithTags(tags map[string]string) *Publisher {
	p.tags = tags
	return p
}

// Publish creates one run per request result of doc. When reportPath is set
// the report file is attached to every run.
func (p *Publisher) Publish(ctx context.Context, doc *report.Document, reportPath string) ([]*models.RunInfo, error) {
	params := RunParams(doc)
	runs := make([]*models.RunInfo, 0, len(doc.Requests))
	for _, r := range doc.Requests {
		run, err := p.PublishResult(ctx, r, doc.Resource(r.TestName), params, doc.ID)
		if err != nil {
			return runs, fmt.Errorf("failed to publish %s: %w", r.TestName, err)
		}
		if reportPath != "" {
			if err := p.tracker.UploadArtifact(ctx, run.RunID, reportPath, ""); err != nil {
				return runs, fmt.Errorf("failed to upload report for %s: %w", r.TestName, err)
			}
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// PublishResult logs one request result, with its paired resource result
// if any, and closes the run with a status matching the verdict.
func (p *Publisher) PublishResult(ctx context.Context, r *models.AnalysisResult, res *models.ResourceResult, params []models.Parameter, reportID string) (*models.RunInfo, error) {
	suite, test := report.SplitName(r.TestName)
	start := time.UnixMilli(r.StartTimestampMs)
	runName := r.TestName
	tags := make(map[string]string, len(p.tags)+4)
	for k, v := range p.tags {
		tags[k] = v
	}
	tags["perfreport.suite"] = suite
	tags["perfreport.test"] = test
	tags["perfreport.verdict"] = string(r.Verdict)
	if reportID != "" {
		tags["perfreport.report_id"] = reportID
	}
	cfg := &models.RunConfig{
		ExperimentID: &p.experimentID,
		RunName:      &runName,
		Tags:         tags,
		StartTime:    &start,
	}
	if r.VerdictReason != "" {
		cfg.Description = &r.VerdictReason
	}

	run, err := p.tracker.CreateRun(ctx, cfg)
	if err != nil {
		return nil, err
	}
	p.logger.Info("created run", zap.String("test", r.TestName), zap.String("run_id", run.RunID))

	status := models.RunStatusFor(r.Verdict)
	if err := p.tracker.LogParams(ctx, run.RunID, params); err != nil {
		return nil, p.abort(ctx, run.RunID, err)
	}
	metrics := RunMetrics(r, res)
	if err := p.tracker.LogBatchMetrics(ctx, run.RunID, metrics); err != nil {
		return nil, p.abort(ctx, run.RunID, err)
	}

	end := start.Add(time.Duration(r.DurationSeconds) * time.Second)
	if err := p.tracker.UpdateRun(ctx, run.RunID, status, end); err != nil {
		return nil, err
	}
	run.Status = string(status)
	run.EndTime = &end

	p.logger.Debug("published run",
		zap.String("run_id", run.RunID),
		zap.Int("metrics", len(metrics)),
		zap.String("status", run.Status),
	)
	return run, nil
}

// abort marks a half written run as killed and returns cause.
func (p *Publisher) abort(ctx context.Context, runID string, cause error) error {
	if err := p.tracker.UpdateRun(ctx, runID, models.RunStatusKilled, time.Now()); err != nil {
		p.logger.Warn("failed to mark run killed", zap.String("run_id", runID), zap.Error(err))
	}
	return cause
}

// RunParams are the evaluation settings every run of doc is logged with.
func RunParams(doc *report.Document) []models.Parameter {
	params := []models.Parameter{
		{Key: "generator", Value: doc.Generator},
		{Key: "target_tps", Value: strconv.FormatFloat(doc.TargetTPS, 'f', -1, 64)},
	}
	if th := doc.Thresholds.ErrorRate; th != nil {
		params = append(params, models.Parameter{Key: "error_rate_threshold", Value: strconv.FormatFloat(*th, 'f', -1, 64)})
	}
	if th := doc.Thresholds.TPS; th != nil {
		params = append(params, models.Parameter{Key: "tps_threshold", Value: strconv.FormatFloat(*th, 'f', -1, 64)})
	}
	return params
}

func appendPoint(metrics []models.Metric, key string, v models.Float, ts time.Time) []models.Metric {
	if v.IsNaN() {
		return metrics
	}
	return append(metrics, models.Metric{Key: key, Value: float64(v), Timestamp: ts})
}

// RunMetrics flattens a result into metric points. Summary values use step
// 0, per-second series use the 1-based second and resource series the
// approximate second of the first snapshot taken in it. Undefined values
// are left out.
func RunMetrics(r *models.AnalysisResult, res *models.ResourceResult) []models.Metric {
	start := time.UnixMilli(r.StartTimestampMs)

	var metrics []models.Metric
	metrics = appendPoint(metrics, "transactions", models.Float(r.OverallTransactionCount), start)
	metrics = appendPoint(metrics, "errors", models.Float(r.OverallErrorCount), start)
	metrics = appendPoint(metrics, "error_rate", models.Float(r.ErrorRate()), start)
	metrics = appendPoint(metrics, "duration_seconds", models.Float(r.DurationSeconds), start)
	metrics = appendPoint(metrics, "response_time_min", r.OverallMinResponseTime, start)
	metrics = appendPoint(metrics, "response_time_max", r.OverallMaxResponseTime, start)
	metrics = appendPoint(metrics, "response_time_avg", r.OverallAvgResponseTime, start)
	for _, q := range analysis.PercentileKeys {
		if v, ok := r.OverallPercentiles[q]; ok {
			metrics = appendPoint(metrics, "response_time_"+q, v, start)
		}
	}

	tps := make(map[int]float64, len(r.TransactionCountPerSecond))
	errs := make(map[int]float64, len(r.ErrorCountPerSecond))
	avg := make(map[int]float64, len(r.AvgResponseTimePerSecond))
	for _, second := range r.Seconds() {
		tps[second] = float64(r.TransactionCountPerSecond[second])
		errs[second] = float64(r.ErrorCountPerSecond[second])
		avg[second] = float64(r.AvgResponseTimePerSecond[second])
	}
	metrics = append(metrics, timeutils.ProcessSeries("tps", tps, r.StartTimestampMs)...)
	metrics = append(metrics, timeutils.ProcessSeries("errors_per_second", errs, r.StartTimestampMs)...)
	metrics = append(metrics, timeutils.ProcessSeries("avg_response_time", avg, r.StartTimestampMs)...)

	if res == nil {
		return metrics
	}
	cpuAvg := make(map[int]float64)
	cpuMax := make(map[int]float64)
	memAvg := make(map[int]float64)
	memMax := make(map[int]float64)
	for _, offset := range res.Offsets() {
		// Short sampling intervals put several snapshots in one second;
		// the earliest snapshot of each second is kept.
		second := max(res.OffsetSeconds[offset], 1)
		if _, ok := cpuAvg[second]; ok {
			continue
		}
		stats := res.PerOffset[offset]
		cpuAvg[second] = float64(stats.CPUAvg)
		cpuMax[second] = float64(stats.CPUMax)
		memAvg[second] = float64(stats.MemoryAvg)
		memMax[second] = float64(stats.MemoryMax)
	}
	metrics = append(metrics, timeutils.ProcessSeries("cpu_avg_mcores", cpuAvg, r.StartTimestampMs)...)
	metrics = append(metrics, timeutils.ProcessSeries("cpu_max_mcores", cpuMax, r.StartTimestampMs)...)
	metrics = append(metrics, timeutils.ProcessSeries("memory_avg_bytes", memAvg, r.StartTimestampMs)...)
	metrics = append(metrics, timeutils.ProcessSeries("memory_max_bytes", memMax, r.StartTimestampMs)...)

	return metrics
}
