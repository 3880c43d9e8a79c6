package models

// Verdict is the PASS/FAIL classification of a test run.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

// Result is produced once per analyzed table and is never mutated afterwards.
type Result interface {
	Name() string
	Kind() TableKind
}

// Percentiles of a response time distribution, keyed "p50", "p90", "p95" and
// "p99".
type Percentiles map[string]Float

// AnalysisResult holds the aggregates of a request table. Per-second maps are
// keyed by the 1-based bucket offset and contain every offset in
// [1, DurationSeconds].
type AnalysisResult struct {
	TestName string `json:"test_name"`

	Endpoints               []string       `json:"endpoints"`
	TransactionCountPerAPI  map[string]int `json:"transaction_count_per_api"`
	ErrorCountPerAPI        map[string]int `json:"error_count_per_api"`
	OverallTransactionCount int            `json:"overall_transaction_count"`
	OverallErrorCount       int            `json:"overall_error_count"`
	DurationSeconds         int            `json:"test_duration_in_seconds"`
	StartTimestampMs        int64          `json:"start_timestamp_ms"`

	TransactionCountPerSecond map[int]int   `json:"transaction_count_per_second"`
	ErrorCountPerSecond       map[int]int   `json:"error_count_per_second"`
	AvgResponseTimePerSecond  map[int]Float `json:"avg_response_time_per_second"`

	OverallMaxResponseTime Float `json:"overall_maximum_response_time"`
	OverallMinResponseTime Float `json:"overall_minimum_response_time"`
	OverallAvgResponseTime Float `json:"overall_avg_response_time"`

	MaxResponseTimePerAPI map[string]Float `json:"maximum_response_time_per_api"`
	MinResponseTimePerAPI map[string]Float `json:"minimum_response_time_per_api"`
	AvgResponseTimePerAPI map[string]Float `json:"average_response_time_per_api"`

	OverallPercentiles Percentiles            `json:"overall_percentiles"`
	PercentilesPerAPI  map[string]Percentiles `json:"percentiles_per_api"`

	Verdict       Verdict `json:"verdict"`
	VerdictReason string  `json:"verdict_reason,omitempty"`
}

func (r *AnalysisResult) Name() string    { return r.TestName }
func (r *AnalysisResult) Kind() TableKind { return KindRequest }

// ErrorRate is errors over transactions, 0 when nothing ran.
func (r *AnalysisResult) ErrorRate() float64 {
	if r.OverallTransactionCount == 0 {
		return 0
	}
	return float64(r.OverallErrorCount) / float64(r.OverallTransactionCount)
}

// Seconds returns the bucket offsets in order.
func (r *AnalysisResult) Seconds() []int {
	seconds := make([]int, r.DurationSeconds)
	for i := range seconds {
		seconds[i] = i + 1
	}
	return seconds
}

// ResourceStats is the mean/max/min of CPU (millicores) and memory (bytes)
// over one group of snapshots.
type ResourceStats struct {
	CPUAvg    Float `json:"cpu_avg_mcores"`
	CPUMax    Float `json:"cpu_max_mcores"`
	CPUMin    Float `json:"cpu_min_mcores"`
	MemoryAvg Float `json:"memory_avg_bytes"`
	MemoryMax Float `json:"memory_max_bytes"`
	MemoryMin Float `json:"memory_min_bytes"`
}

// ResourceOverall summarizes a whole snapshot set.
type ResourceOverall struct {
	AvgCPU         Float `json:"overall_avg_cpu_mcores"`
	MaxCPU         Float `json:"overall_max_cpu_mcores"`
	AvgMemory      Float `json:"overall_avg_memory_bytes"`
	MaxMemory      Float `json:"overall_max_memory_bytes"`
	StartTimestamp int64 `json:"start_timestamp"`
	EndTimestamp   int64 `json:"end_timestamp"`
	SnapshotCount  int   `json:"snapshot_count"`
}

// ResourceResult holds the aggregates of a resource snapshot table. Offsets
// index the sorted distinct snapshot timestamps starting at 1.
type ResourceResult struct {
	TestName string `json:"test_name"`

	Pods          []string                 `json:"pods"`
	PerPod        map[string]ResourceStats `json:"per_pod"`
	PerOffset     map[int]ResourceStats    `json:"over_time"`
	OffsetSeconds map[int]int              `json:"offset_seconds"`
	Overall       ResourceOverall          `json:"overall"`
}

func (r *ResourceResult) Name() string    { return r.TestName }
func (r *ResourceResult) Kind() TableKind { return KindResource }

// Offsets returns the snapshot offsets in order.
func (r *ResourceResult) Offsets() []int {
	offsets := make([]int, r.Overall.SnapshotCount)
	for i := range offsets {
		offsets[i] = i + 1
	}
	return offsets
}
