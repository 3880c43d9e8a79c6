package report

import (
	"math"
	"sort"
	"strings"

	"github.com/imishinist/perfreport/internal/models"
)

const (
	// RootSuite holds tests whose name has no suite prefix.
	RootSuite = "__root__"
	// ResourceSuffix marks the resource table that belongs to a request test.
	ResourceSuffix = "_resources"
)

// SplitName splits "suite.test" on the first dot.
func SplitName(name string) (string, string) {
	if suite, test, ok := strings.Cut(name, "."); ok {
		return suite, test
	}
	return RootSuite, name
}

// BaseTest strips the resource suffix from a test name.
func BaseTest(test string) string {
	return strings.TrimSuffix(test, ResourceSuffix)
}

// Entry pairs the request and resource results of one test. Either side may
// be missing.
type Entry struct {
	Suite    string                 `json:"suite"`
	Test     string                 `json:"test"`
	Request  *models.AnalysisResult `json:"-"`
	Resource *models.ResourceResult `json:"-"`
}

// Rollup aggregates the entries of a suite or of the whole run. Response time
// averages are weighted by transactions, CPU is the mean of test averages
// and the max of test maxima, and memory is in MiB.
type Rollup struct {
	Tests           int            `json:"tests"`
	Transactions    int            `json:"transactions"`
	Errors          int            `json:"errors"`
	ErrorRate       float64        `json:"error_rate"`
	AvgResponseTime float64        `json:"avg_response_time"`
	MinResponseTime models.Float   `json:"min_response_time"`
	MaxResponseTime models.Float   `json:"max_response_time"`
	Verdict         models.Verdict `json:"verdict"`
	AvgCPU          models.Float   `json:"avg_cpu_mcores"`
	MaxCPU          models.Float   `json:"max_cpu_mcores"`
	AvgMemoryMiB    models.Float   `json:"avg_memory_mib"`
	MaxMemoryMiB    models.Float   `json:"max_memory_mib"`
}

// Suite is one group of tests sharing a name prefix.
type Suite struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"tests"`
	Rollup  Rollup  `json:"rollup"`
}

// BytesToMiB converts bytes to mebibytes.
func BytesToMiB(v models.Float) models.Float {
	return v / (1024 * 1024)
}

type accumulator struct {
	tests       int
	tx, errs    int
	weightedSum float64
	min, max    models.Float
	fail        bool
	cpuAvgs     []float64
	cpuMaxes    []float64
	memAvgs     []float64
	memMaxes    []float64
}

func newAccumulator() *accumulator {
	return &accumulator{min: models.NaN(), max: models.NaN()}
}

func appendDefined(values []float64, v models.Float) []float64 {
	if v.IsNaN() {
		return values
	}
	return append(values, float64(v))
}

func (a *accumulator) add(e Entry) {
	a.tests++
	if r := e.Request; r != nil {
		a.tx += r.OverallTransactionCount
		a.errs += r.OverallErrorCount
		if !r.OverallAvgResponseTime.IsNaN() {
			a.weightedSum += float64(r.OverallAvgResponseTime) * float64(r.OverallTransactionCount)
		}
		if !r.OverallMinResponseTime.IsNaN() && (a.min.IsNaN() || r.OverallMinResponseTime < a.min) {
			a.min = r.OverallMinResponseTime
		}
		if !r.OverallMaxResponseTime.IsNaN() && (a.max.IsNaN() || r.OverallMaxResponseTime > a.max) {
			a.max = r.OverallMaxResponseTime
		}
		if r.Verdict == models.VerdictFail {
			a.fail = true
		}
	}
	if res := e.Resource; res != nil {
		a.cpuAvgs = appendDefined(a.cpuAvgs, res.Overall.AvgCPU)
		a.cpuMaxes = appendDefined(a.cpuMaxes, res.Overall.MaxCPU)
		a.memAvgs = appendDefined(a.memAvgs, BytesToMiB(res.Overall.AvgMemory))
		a.memMaxes = appendDefined(a.memMaxes, BytesToMiB(res.Overall.MaxMemory))
	}
}

func mean(values []float64) models.Float {
	if len(values) == 0 {
		return models.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return models.Float(sum / float64(len(values)))
}

func maximum(values []float64) models.Float {
	if len(values) == 0 {
		return models.NaN()
	}
	m := values[0]
	for _, v := range values[1:] {
		m = math.Max(m, v)
	}
	return models.Float(m)
}

func (a *accumulator) rollup() Rollup {
	r := Rollup{
		Tests:           a.tests,
		Transactions:    a.tx,
		Errors:          a.errs,
		MinResponseTime: a.min,
		MaxResponseTime: a.max,
		Verdict:         models.VerdictPass,
		AvgCPU:          mean(a.cpuAvgs),
		MaxCPU:          maximum(a.cpuMaxes),
		AvgMemoryMiB:    mean(a.memAvgs),
		MaxMemoryMiB:    maximum(a.memMaxes),
	}
	if a.tx > 0 {
		r.ErrorRate = float64(a.errs) / float64(a.tx)
		r.AvgResponseTime = a.weightedSum / float64(a.tx)
	}
	if a.fail {
		r.Verdict = models.VerdictFail
	}
	return r
}

// GroupSuites arranges results into suites sorted by name, pairing each
// "<test>_resources" result with "<test>". The second return value rolls up
// every entry.
func GroupSuites(results []models.Result) ([]Suite, Rollup) {
	entries := make(map[string]map[string]*Entry)
	for _, result := range results {
		suite, test := SplitName(result.Name())
		base := BaseTest(test)
		if entries[suite] == nil {
			entries[suite] = make(map[string]*Entry)
		}
		e := entries[suite][base]
		if e == nil {
			e = &Entry{Suite: suite, Test: base}
			entries[suite][base] = e
		}
		switch r := result.(type) {
		case *models.AnalysisResult:
			e.Request = r
		case *models.ResourceResult:
			e.Resource = r
		}
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	overall := newAccumulator()
	suites := make([]Suite, 0, len(names))
	for _, name := range names {
		tests := make([]string, 0, len(entries[name]))
		for test := range entries[name] {
			tests = append(tests, test)
		}
		sort.Strings(tests)

		acc := newAccumulator()
		suite := Suite{Name: name}
		for _, test := range tests {
			e := *entries[name][test]
			suite.Entries = append(suite.Entries, e)
			acc.add(e)
			overall.add(e)
		}
		suite.Rollup = acc.rollup()
		suites = append(suites, suite)
	}

	return suites, overall.rollup()
}
