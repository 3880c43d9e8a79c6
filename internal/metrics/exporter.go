package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imishinist/perfreport/internal/models"
)

const namespace = "perfreport"

// Exporter holds the gauges of one analysis run on a private registry.
type Exporter struct {
	registry *prometheus.Registry

	transactionsGauge *prometheus.GaugeVec
	errorsGauge       *prometheus.GaugeVec
	durationGauge     *prometheus.GaugeVec
	responseTimeGauge *prometheus.GaugeVec
	percentileGauge   *prometheus.GaugeVec
	verdictGauge      *prometheus.GaugeVec
	cpuGauge          *prometheus.GaugeVec
	memoryGauge       *prometheus.GaugeVec
}

func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		transactionsGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "transactions",
				Help:      "Transactions recorded per endpoint",
			},
			[]string{"test", "endpoint"},
		),
		errorsGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "errors",
				Help:      "Failed transactions per endpoint",
			},
			[]string{"test", "endpoint"},
		),
		durationGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "duration_seconds",
				Help:      "Test duration in whole seconds",
			},
			[]string{"test"},
		),
		responseTimeGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "response_time_milliseconds",
				Help:      "Response time statistics per endpoint",
			},
			[]string{"test", "endpoint", "stat"},
		),
		percentileGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "response_time_percentile_milliseconds",
				Help:      "Response time percentiles per endpoint",
			},
			[]string{"test", "endpoint", "quantile"},
		),
		verdictGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "verdict_pass",
				Help:      "1 when the test passed, 0 when it failed",
			},
			[]string{"test"},
		),
		cpuGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cpu_millicores",
				Help:      "Container CPU usage per pod",
			},
			[]string{"test", "pod", "stat"},
		),
		memoryGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "memory_bytes",
				Help:      "Container memory usage per pod",
			},
			[]string{"test", "pod", "stat"},
		),
	}

	e.registry.MustRegister(
		e.transactionsGauge,
		e.errorsGauge,
		e.durationGauge,
		e.responseTimeGauge,
		e.percentileGauge,
		e.verdictGauge,
		e.cpuGauge,
		e.memoryGauge,
	)

	return e
}

// Registry exposes the private registry, mainly for tests.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

func set(vec *prometheus.GaugeVec, v models.Float, labels ...string) {
	if v.IsNaN() {
		return
	}
	vec.WithLabelValues(labels...).Set(float64(v))
}

// Record sets the gauges for one result. Undefined values leave their
// series unset.
func (e *Exporter) Record(result models.Result) {
	switch r := result.(type) {
	case *models.AnalysisResult:
		e.recordRequests(r)
	case *models.ResourceResult:
		e.recordResources(r)
	}
}

func (e *Exporter) recordRequests(r *models.AnalysisResult) {
	e.durationGauge.WithLabelValues(r.TestName).Set(float64(r.DurationSeconds))

	verdict := 0.0
	if r.Verdict == models.VerdictPass {
		verdict = 1
	}
	e.verdictGauge.WithLabelValues(r.TestName).Set(verdict)

	e.transactionsGauge.WithLabelValues(r.TestName, "all").Set(float64(r.OverallTransactionCount))
	e.errorsGauge.WithLabelValues(r.TestName, "all").Set(float64(r.OverallErrorCount))
	set(e.responseTimeGauge, r.OverallMinResponseTime, r.TestName, "all", "min")
	set(e.responseTimeGauge, r.OverallMaxResponseTime, r.TestName, "all", "max")
	set(e.responseTimeGauge, r.OverallAvgResponseTime, r.TestName, "all", "mean")
	for q, v := range r.OverallPercentiles {
		set(e.percentileGauge, v, r.TestName, "all", q)
	}

	for _, endpoint := range r.Endpoints {
		e.transactionsGauge.WithLabelValues(r.TestName, endpoint).Set(float64(r.TransactionCountPerAPI[endpoint]))
		e.errorsGauge.WithLabelValues(r.TestName, endpoint).Set(float64(r.ErrorCountPerAPI[endpoint]))
		set(e.responseTimeGauge, r.MinResponseTimePerAPI[endpoint], r.TestName, endpoint, "min")
		set(e.responseTimeGauge, r.MaxResponseTimePerAPI[endpoint], r.TestName, endpoint, "max")
		set(e.responseTimeGauge, r.AvgResponseTimePerAPI[endpoint], r.TestName, endpoint, "mean")
		for q, v := range r.PercentilesPerAPI[endpoint] {
			set(e.percentileGauge, v, r.TestName, endpoint, q)
		}
	}
}

func (e *Exporter) recordResources(r *models.ResourceResult) {
	for _, pod := range r.Pods {
		stats := r.PerPod[pod]
		set(e.cpuGauge, stats.CPUAvg, r.TestName, pod, "avg")
		set(e.cpuGauge, stats.CPUMax, r.TestName, pod, "max")
		set(e.cpuGauge, stats.CPUMin, r.TestName, pod, "min")
		set(e.memoryGauge, stats.MemoryAvg, r.TestName, pod, "avg")
		set(e.memoryGauge, stats.MemoryMax, r.TestName, pod, "max")
		set(e.memoryGauge, stats.MemoryMin, r.TestName, pod, "min")
	}
	set(e.cpuGauge, r.Overall.AvgCPU, r.TestName, "all", "avg")
	set(e.cpuGauge, r.Overall.MaxCPU, r.TestName, "all", "max")
	set(e.memoryGauge, r.Overall.AvgMemory, r.TestName, "all", "avg")
	set(e.memoryGauge, r.Overall.MaxMemory, r.TestName, "all", "max")
}

// WriteTextfile writes the registry in the text exposition format, suitable
// for the node_exporter textfile collector.
func (e *Exporter) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
