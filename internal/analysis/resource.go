package analysis

import (
	"sort"

	"github.com/imishinist/perfreport/internal/models"
	"github.com/imishinist/perfreport/internal/quantity"
	timeutils "github.com/imishinist/perfreport/internal/time"
)

type sample struct {
	pod       string
	offset    int
	timestamp int64
	cpu       float64
	memory    float64
}

func sampleCPU(s sample) float64    { return s.cpu }
func sampleMemory(s sample) float64 { return s.memory }

func resourceStats(rows []sample) models.ResourceStats {
	return models.ResourceStats{
		CPUAvg:    Mean(rows, sampleCPU),
		CPUMax:    Max(rows, sampleCPU),
		CPUMin:    Min(rows, sampleCPU),
		MemoryAvg: Mean(rows, sampleMemory),
		MemoryMax: Max(rows, sampleMemory),
		MemoryMin: Min(rows, sampleMemory),
	}
}

// AnalyzeResources aggregates container snapshots per pod and per snapshot
// offset. Offsets number the distinct snapshot timestamps in ascending order
// starting at 1; interval is the collector sampling interval in seconds and
// only affects OffsetSeconds.
func AnalyzeResources(name string, snapshots []models.ResourceSnapshot, interval float64) (*models.ResourceResult, error) {
	if len(snapshots) == 0 {
		return nil, ErrEmptyInput
	}

	distinct := make(map[int64]struct{})
	for _, s := range snapshots {
		distinct[s.Timestamp] = struct{}{}
	}
	timestamps := make([]int64, 0, len(distinct))
	for ts := range distinct {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	offsetOf := make(map[int64]int, len(timestamps))
	for i, ts := range timestamps {
		offsetOf[ts] = i + 1
	}

	samples := make([]sample, len(snapshots))
	for i, s := range snapshots {
		samples[i] = sample{
			pod:       s.PodName,
			offset:    offsetOf[s.Timestamp],
			timestamp: s.Timestamp,
			cpu:       quantity.ParseCPU(s.CPU),
			memory:    quantity.ParseMemory(s.Memory),
		}
	}

	byPod := GroupBy(samples, func(s sample) string { return s.pod })
	byOffset := GroupBy(samples, func(s sample) int { return s.offset })

	offsetSeconds := make(map[int]int, len(timestamps))
	for _, g := range byOffset {
		offsetSeconds[g.Key] = timeutils.ScaleOffset(g.Key, interval)
	}

	return &models.ResourceResult{
		TestName:      name,
		Pods:          Keys(byPod),
		PerPod:        Reduce(byPod, resourceStats),
		PerOffset:     Reduce(byOffset, resourceStats),
		OffsetSeconds: offsetSeconds,
		Overall: models.ResourceOverall{
			AvgCPU:         Mean(samples, sampleCPU),
			MaxCPU:         Max(samples, sampleCPU),
			AvgMemory:      Mean(samples, sampleMemory),
			MaxMemory:      Max(samples, sampleMemory),
			StartTimestamp: timestamps[0],
			EndTimestamp:   timestamps[len(timestamps)-1],
			SnapshotCount:  len(timestamps),
		},
	}, nil
}
