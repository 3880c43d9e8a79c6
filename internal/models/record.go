package models

// RecordColumns is the fixed column order of a normalized request table.
var RecordColumns = []string{"label", "timestamp_ms", "elapsed_ms", "success", "response_code"}

// Record is one completed request in the canonical schema.
type Record struct {
	Label        string  `json:"label"`
	TimestampMs  int64   `json:"timestamp_ms"`
	ElapsedMs    float64 `json:"elapsed_ms"`
	Success      bool    `json:"success"`
	ResponseCode int     `json:"response_code"`
}

// ResourceSnapshot is one container sample emitted by a metrics collector.
// CPU and Memory hold the raw value as decoded: a string with a unit suffix,
// a number, or nil.
type ResourceSnapshot struct {
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	PodName   string `json:"podname" yaml:"podname"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Container string `json:"container" yaml:"container"`
	CPU       any    `json:"cpu" yaml:"cpu"`
	Memory    any    `json:"memory" yaml:"memory"`
}

// TableKind tags which variant a Table is.
type TableKind string

const (
	KindRequest  TableKind = "request"
	KindResource TableKind = "resource"
)

// Table is the loader's output for one test: either request records or
// resource snapshots.
type Table interface {
	Kind() TableKind
	Len() int
}

type RequestTable struct {
	Records []Record
}

func (t *RequestTable) Kind() TableKind { return KindRequest }
func (t *RequestTable) Len() int        { return len(t.Records) }

type ResourceTable struct {
	Snapshots []ResourceSnapshot
}

func (t *ResourceTable) Kind() TableKind { return KindResource }
func (t *ResourceTable) Len() int        { return len(t.Snapshots) }
