package analysis

import (
	"math"
	"sort"

	"github.com/HdrHistogram/hdrhistogram-go"
	"golang.org/x/exp/constraints"

	"github.com/imishinist/perfreport/internal/models"
)

// Group is the rows sharing one key.
type Group[K constraints.Ordered, R any] struct {
	Key  K
	Rows []R
}

// GroupBy partitions rows by key. Groups come back in ascending key order and
// rows keep their input order within a group. rows is not modified.
func GroupBy[K constraints.Ordered, R any](rows []R, key func(R) K) []Group[K, R] {
	index := make(map[K]int)
	var groups []Group[K, R]
	for _, row := range rows {
		k := key(row)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K, R]{Key: k})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// Keys returns the group keys in order.
func Keys[K constraints.Ordered, R any](groups []Group[K, R]) []K {
	keys := make([]K, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}

// Reduce applies fn to every group and collects the values by key.
func Reduce[K constraints.Ordered, R any, V any](groups []Group[K, R], fn func([]R) V) map[K]V {
	out := make(map[K]V, len(groups))
	for _, g := range groups {
		out[g.Key] = fn(g.Rows)
	}
	return out
}

// Count returns the number of rows.
func Count[R any](rows []R) int {
	return len(rows)
}

// ErrorCount returns the number of unsuccessful records.
func ErrorCount(rows []models.Record) int {
	n := 0
	for _, r := range rows {
		if !r.Success {
			n++
		}
	}
	return n
}

// Elapsed selects the response time column of a record.
func Elapsed(r models.Record) float64 {
	return r.ElapsedMs
}

// Min returns the smallest column value, NaN for no rows.
func Min[R any](rows []R, col func(R) float64) models.Float {
	if len(rows) == 0 {
		return models.NaN()
	}
	m := col(rows[0])
	for _, r := range rows[1:] {
		m = math.Min(m, col(r))
	}
	return models.Float(m)
}

// Max returns the largest column value, NaN for no rows.
func Max[R any](rows []R, col func(R) float64) models.Float {
	if len(rows) == 0 {
		return models.NaN()
	}
	m := col(rows[0])
	for _, r := range rows[1:] {
		m = math.Max(m, col(r))
	}
	return models.Float(m)
}

// Mean returns the arithmetic mean of a column, NaN for no rows.
func Mean[R any](rows []R, col func(R) float64) models.Float {
	if len(rows) == 0 {
		return models.NaN()
	}
	var sum float64
	for _, r := range rows {
		sum += col(r)
	}
	return models.Float(sum / float64(len(rows)))
}

// PercentileKeys are the reported quantiles, in order.
var PercentileKeys = []string{"p50", "p90", "p95", "p99"}

var percentileQuantiles = map[string]float64{
	"p50": 50,
	"p90": 90,
	"p95": 95,
	"p99": 99,
}

// maxTrackableMicros bounds the histogram at one hour.
const maxTrackableMicros int64 = 3_600_000_000

// Percentiles returns the response time quantiles of rows in milliseconds.
// Values are tracked at microsecond resolution with three significant
// digits. Every quantile is NaN for no rows.
func Percentiles(rows []models.Record) models.Percentiles {
	out := make(models.Percentiles, len(PercentileKeys))
	if len(rows) == 0 {
		for _, k := range PercentileKeys {
			out[k] = models.NaN()
		}
		return out
	}

	h := hdrhistogram.New(1, maxTrackableMicros, 3)
	for _, r := range rows {
		v := int64(math.Round(r.ElapsedMs * 1000))
		if v < 1 {
			v = 1
		}
		if v > maxTrackableMicros {
			v = maxTrackableMicros
		}
		// in range by construction
		_ = h.RecordValue(v)
	}
	for _, k := range PercentileKeys {
		out[k] = models.Float(float64(h.ValueAtQuantile(percentileQuantiles[k])) / 1000)
	}
	return out
}
