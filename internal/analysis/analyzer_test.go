package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/perfreport/internal/models"
)

func testAnalyzer() *Analyzer {
	return New(Thresholds{ErrorRate: limit(0.5), TPS: limit(1)}, 1)
}

func TestAnalyzeRequests(t *testing.T) {
	records := []models.Record{
		rec("GET /a", 0, 10, true),
		rec("GET /b", 1500, 20, false),
	}

	result, err := testAnalyzer().AnalyzeRequests("smoke", records)
	require.NoError(t, err)

	assert.Equal(t, "smoke", result.Name())
	assert.Equal(t, 2, result.DurationSeconds)
	assert.Equal(t, int64(0), result.StartTimestampMs)
	assert.Equal(t, []string{"GET /a", "GET /b"}, result.Endpoints)
	assert.Equal(t, map[string]int{"GET /a": 1, "GET /b": 1}, result.TransactionCountPerAPI)
	assert.Equal(t, map[string]int{"GET /a": 0, "GET /b": 1}, result.ErrorCountPerAPI)
	assert.Equal(t, map[int]int{1: 1, 2: 1}, result.TransactionCountPerSecond)
	assert.Equal(t, map[int]int{1: 0, 2: 1}, result.ErrorCountPerSecond)
	assert.Equal(t, models.Float(10), result.AvgResponseTimePerSecond[1])
	assert.Equal(t, models.Float(20), result.OverallMaxResponseTime)
	assert.Equal(t, models.Float(10), result.OverallMinResponseTime)
	assert.Equal(t, models.Float(15), result.OverallAvgResponseTime)
	assert.Equal(t, models.Float(20), result.MaxResponseTimePerAPI["GET /b"])
	assert.Equal(t, 0.5, result.ErrorRate())
	assert.Equal(t, models.VerdictPass, result.Verdict)
	assert.Empty(t, result.VerdictReason)
}

func TestAnalyzeRequestsGapSecond(t *testing.T) {
	records := []models.Record{rec("a", 0, 10, true), rec("a", 2500, 30, true)}

	result, err := testAnalyzer().AnalyzeRequests("gap", records)
	require.NoError(t, err)

	assert.Equal(t, 3, result.DurationSeconds)
	assert.Equal(t, 0, result.TransactionCountPerSecond[2])
	assert.True(t, result.AvgResponseTimePerSecond[2].IsNaN())
	assert.Equal(t, models.VerdictFail, result.Verdict)
	assert.Equal(t, "second 2 had 0 transactions, below threshold 1", result.VerdictReason)
}

func TestAnalyzeIsRepeatable(t *testing.T) {
	records := []models.Record{rec("b", 0, 10, true), rec("a", 900, 5, false), rec("b", 1200, 7, true)}
	a := testAnalyzer()

	first, err := a.Analyze("t", &models.RequestTable{Records: records})
	require.NoError(t, err)
	second, err := a.Analyze("t", &models.RequestTable{Records: records})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyzeDispatch(t *testing.T) {
	a := testAnalyzer()

	result, err := a.Analyze("res", &models.ResourceTable{Snapshots: []models.ResourceSnapshot{{Timestamp: 1, PodName: "p", CPU: "1m", Memory: "1"}}})
	require.NoError(t, err)
	assert.Equal(t, models.KindResource, result.Kind())

	_, err = a.Analyze("empty", &models.RequestTable{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAnalyzeMissingThreshold(t *testing.T) {
	a := New(Thresholds{}, 1)
	_, err := a.AnalyzeRequests("t", []models.Record{rec("a", 0, 1, true)})
	assert.ErrorIs(t, err, ErrMissingThreshold)
}
