package models

import "time"

// Metric is one point of a published metric series. Step is the 1-based
// second (or approximate second for resource samples) it belongs to.
type Metric struct {
	Key       string    `json:"key"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Step      int64     `json:"step"`
}
