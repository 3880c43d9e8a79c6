// Package quantity converts container resource readings into canonical
// units: CPU in millicores and memory in bytes.
//
// Malformed values are coerced to 0 so that one bad sample never prevents a
// report from being produced.
package quantity

import (
	"encoding/json"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
)

// memorySuffixes is checked in order. Binary suffixes come first so that a
// two letter suffix is always matched before any one letter suffix.
var memorySuffixes = []string{"Ki", "Mi", "Gi", "Ti", "Pi", "Ei", "k", "M", "G", "T"}

var memoryFactors = map[string]float64{
	"Ki": 1 << 10,
	"Mi": 1 << 20,
	"Gi": 1 << 30,
	"Ti": 1 << 40,
	"Pi": 1 << 50,
	"Ei": 1 << 60,
	"k":  1e3,
	"M":  1e6,
	"G":  1e9,
	"T":  1e12,
}

// ParseCPU returns v in millicores. Numbers are whole cores, strings ending
// in "m" are millicores and any other string is parsed as whole cores.
func ParseCPU(v any) float64 {
	if n, ok := number(v); ok {
		return n * 1000
	}
	text, ok := v.(string)
	if !ok {
		return 0
	}
	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, "m") {
		f, err := strconv.ParseFloat(text[:len(text)-1], 64)
		if err != nil {
			return 0
		}
		return f
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return f * 1000
}

// ParseMemory returns v in bytes. Numbers are bytes already; strings may
// carry one of the binary (Ki..Ei) or decimal (k, M, G, T) suffixes.
// Suffixes are case sensitive.
func ParseMemory(v any) float64 {
	if n, ok := number(v); ok {
		return n
	}
	text, ok := v.(string)
	if !ok {
		return 0
	}
	text = strings.TrimSpace(text)
	for _, suffix := range memorySuffixes {
		if !strings.HasSuffix(text, suffix) {
			continue
		}
		mantissa, err := strconv.ParseFloat(text[:len(text)-len(suffix)], 64)
		if err != nil {
			return 0
		}
		// Quantities reject an exponent combined with a suffix ("1e3Ki").
		q, err := resource.ParseQuantity(text)
		if err != nil {
			return mantissa * memoryFactors[suffix]
		}
		return q.AsApproximateFloat64()
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return f
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
