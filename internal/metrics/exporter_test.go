package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/perfreport/internal/models"
)

func sampleRequests() *models.AnalysisResult {
	return &models.AnalysisResult{
		TestName:                "login",
		Endpoints:               []string{"GET /a"},
		TransactionCountPerAPI:  map[string]int{"GET /a": 10},
		ErrorCountPerAPI:        map[string]int{"GET /a": 2},
		OverallTransactionCount: 10,
		OverallErrorCount:       2,
		DurationSeconds:         5,
		OverallMinResponseTime:  models.Float(3),
		OverallMaxResponseTime:  models.Float(40),
		OverallAvgResponseTime:  models.NaN(),
		MinResponseTimePerAPI:   map[string]models.Float{"GET /a": 3},
		MaxResponseTimePerAPI:   map[string]models.Float{"GET /a": 40},
		AvgResponseTimePerAPI:   map[string]models.Float{"GET /a": 12},
		OverallPercentiles:      models.Percentiles{"p50": 10, "p99": 39},
		PercentilesPerAPI:       map[string]models.Percentiles{"GET /a": {"p50": 10}},
		Verdict:                 models.VerdictFail,
	}
}

func TestRecordRequests(t *testing.T) {
	e := NewExporter()
	e.Record(sampleRequests())

	assert.Equal(t, 10.0, testutil.ToFloat64(e.transactionsGauge.WithLabelValues("login", "GET /a")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.errorsGauge.WithLabelValues("login", "all")))
	assert.Equal(t, 5.0, testutil.ToFloat64(e.durationGauge.WithLabelValues("login")))
	assert.Equal(t, 0.0, testutil.ToFloat64(e.verdictGauge.WithLabelValues("login")))
	assert.Equal(t, 40.0, testutil.ToFloat64(e.responseTimeGauge.WithLabelValues("login", "all", "max")))
	assert.Equal(t, 39.0, testutil.ToFloat64(e.percentileGauge.WithLabelValues("login", "all", "p99")))

	// undefined overall mean is not exported: min, max plus three per-endpoint stats
	assert.Equal(t, 5, testutil.CollectAndCount(e.responseTimeGauge))
}

func TestRecordResources(t *testing.T) {
	e := NewExporter()
	e.Record(&models.ResourceResult{
		TestName: "login_resources",
		Pods:     []string{"api-0"},
		PerPod: map[string]models.ResourceStats{
			"api-0": {CPUAvg: 100, CPUMax: 200, CPUMin: 50, MemoryAvg: 1024, MemoryMax: 2048, MemoryMin: 512},
		},
		Overall: models.ResourceOverall{AvgCPU: 100, MaxCPU: 200, AvgMemory: 1024, MaxMemory: 2048},
	})

	assert.Equal(t, 200.0, testutil.ToFloat64(e.cpuGauge.WithLabelValues("login_resources", "api-0", "max")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(e.memoryGauge.WithLabelValues("login_resources", "all", "max")))
	assert.Equal(t, 5, testutil.CollectAndCount(e.cpuGauge))
}

func TestWriteTextfile(t *testing.T) {
	e := NewExporter()
	e.Record(sampleRequests())

	path := filepath.Join(t.TempDir(), "textfile", "perfreport.prom")
	require.NoError(t, e.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `perfreport_transactions{endpoint="GET /a",test="login"} 10`)
	assert.Contains(t, string(data), `perfreport_verdict_pass{test="login"} 0`)
}
