// Package normalize maps the native CSV schemas of the supported load
// generators onto the canonical request record.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/imishinist/perfreport/internal/models"
)

// Generator names accepted on the command line.
const (
	GeneratorJMeter = "jmeter"
	GeneratorK6     = "k6"
)

// K6DurationMetric is the only k6 metric that describes a completed request.
const K6DurationMetric = "http_req_duration"

var ErrUnknownGenerator = errors.New("unknown generator")

// Row is one CSV line keyed by its header.
type Row map[string]string

// ValidateGenerator returns ErrUnknownGenerator for unsupported names.
func ValidateGenerator(generator string) error {
	switch generator {
	case GeneratorJMeter, GeneratorK6:
		return nil
	default:
		return fmt.Errorf("%w: %s (valid: jmeter, k6)", ErrUnknownGenerator, generator)
	}
}

// Normalize converts rows produced by generator into canonical records.
func Normalize(generator string, rows []Row) ([]models.Record, error) {
	if err := ValidateGenerator(generator); err != nil {
		return nil, err
	}
	if generator == GeneratorK6 {
		return FromK6(rows), nil
	}
	return FromJMeter(rows), nil
}

// FromJMeter passes JMeter rows through. Rows whose label, timestamp, elapsed
// or success column cannot be parsed are dropped. JMeter writes a text
// response code for transport failures; those rows are kept with code 0.
func FromJMeter(rows []Row) []models.Record {
	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		label, ok := row.lookup("label")
		if !ok {
			continue
		}
		ts, err := parseInt(row.first("timeStamp", "timestamp_ms"))
		if err != nil {
			continue
		}
		elapsed, err := parseFloat(row.first("elapsed", "elapsed_ms"))
		if err != nil {
			continue
		}
		success, err := strconv.ParseBool(strings.TrimSpace(row.first("success")))
		if err != nil {
			continue
		}
		code, err := parseInt(row.first("responseCode", "response_code"))
		if err != nil {
			code = 0
		}
		records = append(records, models.Record{
			Label:        label,
			TimestampMs:  ts,
			ElapsedMs:    elapsed,
			Success:      success,
			ResponseCode: int(code),
		})
	}
	return records
}

// FromK6 keeps the http_req_duration samples of a k6 CSV export. The label is
// "<method> <url>", the timestamp is converted from seconds and a request
// succeeded when its status is below 400.
func FromK6(rows []Row) []models.Record {
	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row["metric_name"]) != K6DurationMetric {
			continue
		}
		seconds, err := parseFloat(row["timestamp"])
		if err != nil {
			continue
		}
		elapsed, err := parseFloat(row["metric_value"])
		if err != nil {
			continue
		}
		status, err := parseInt(row["status"])
		if err != nil {
			continue
		}
		records = append(records, models.Record{
			Label:        row["method"] + " " + row["url"],
			TimestampMs:  int64(math.Floor(seconds * 1000)),
			ElapsedMs:    elapsed,
			Success:      status < 400,
			ResponseCode: int(status),
		})
	}
	return records
}

func (r Row) lookup(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}

// first returns the value of the first present key.
func (r Row) first(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			return v
		}
	}
	return ""
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	// pandas writes integral columns with NaN gaps as floats ("200.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int64(f), nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}
