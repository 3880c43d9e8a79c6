package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/perfreport/internal/models"
)

func TestAnalyzeResources(t *testing.T) {
	snapshots := []models.ResourceSnapshot{
		{Timestamp: 200, PodName: "api-1", CPU: "500m", Memory: "1Gi"},
		{Timestamp: 100, PodName: "api-1", CPU: "250m", Memory: "512Mi"},
		{Timestamp: 100, PodName: "api-0", CPU: 1.0, Memory: float64(1024)},
		{Timestamp: 300, PodName: "api-0", CPU: "2", Memory: nil},
	}

	result, err := AnalyzeResources("load_resources", snapshots, 5)
	require.NoError(t, err)

	assert.Equal(t, "load_resources", result.Name())
	assert.Equal(t, models.KindResource, result.Kind())
	assert.Equal(t, []string{"api-0", "api-1"}, result.Pods)
	assert.Equal(t, []int{1, 2, 3}, result.Offsets())
	assert.Equal(t, map[int]int{1: 5, 2: 10, 3: 15}, result.OffsetSeconds)

	api1 := result.PerPod["api-1"]
	assert.Equal(t, models.Float(375), api1.CPUAvg)
	assert.Equal(t, models.Float(500), api1.CPUMax)
	assert.Equal(t, models.Float(250), api1.CPUMin)
	assert.InDelta(t, 1<<30, float64(api1.MemoryMax), 1)

	first := result.PerOffset[1]
	assert.Equal(t, models.Float(1000), first.CPUMax)
	assert.Equal(t, models.Float(250), first.CPUMin)

	assert.Equal(t, models.Float(2000), result.Overall.MaxCPU)
	assert.Equal(t, int64(100), result.Overall.StartTimestamp)
	assert.Equal(t, int64(300), result.Overall.EndTimestamp)
	assert.Equal(t, 3, result.Overall.SnapshotCount)
}

func TestAnalyzeResourcesEmpty(t *testing.T) {
	_, err := AnalyzeResources("x", nil, 1)
	assert.ErrorIs(t, err, ErrEmptyInput)
}
