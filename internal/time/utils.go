package timeutils

import (
	"math"
	"sort"
	"time"

	"github.com/imishinist/perfreport/internal/models"
)

// HistoryKeyLayout is ISO-8601 truncated to the second without a zone, the
// key format of verdict history files.
const HistoryKeyLayout = "2006-01-02T15:04:05"

// FloorSecond returns the unix second containing the millisecond timestamp
// ms, rounding towards negative infinity.
func FloorSecond(ms int64) int64 {
	s := ms / 1000
	if ms%1000 < 0 {
		s--
	}
	return s
}

// HistoryKey formats t as a verdict history key.
func HistoryKey(t time.Time) string {
	return t.Format(HistoryKeyLayout)
}

// ScaleOffset converts a 1-based resource snapshot offset to an approximate
// second of the test, given the sampling interval of the collector.
// Non-positive intervals are treated as one second.
func ScaleOffset(offset int, interval float64) int {
	if interval <= 0 || math.IsNaN(interval) {
		interval = 1
	}
	return int(math.Round(float64(offset) * interval))
}

// StepTimestamp returns the wall-clock start of the 1-based second step of a
// test that began at startMs.
func StepTimestamp(startMs int64, step int64) time.Time {
	return time.UnixMilli((FloorSecond(startMs) + step - 1) * 1000)
}

// ProcessSeries converts a per-step series into metric points ordered by
// step. NaN values are skipped since tracking backends reject them.
func ProcessSeries(key string, series map[int]float64, startMs int64) []models.Metric {
	steps := make([]int, 0, len(series))
	for step := range series {
		steps = append(steps, step)
	}
	sort.Ints(steps)

	result := make([]models.Metric, 0, len(steps))
	for _, step := range steps {
		value := series[step]
		if math.IsNaN(value) {
			continue
		}
		result = append(result, models.Metric{
			Key:       key,
			Value:     value,
			Timestamp: StepTimestamp(startMs, int64(step)),
			Step:      int64(step),
		})
	}
	return result
}
