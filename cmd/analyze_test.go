package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imishinist/perfreport/internal/config"
	"github.com/imishinist/perfreport/internal/history"
	"github.com/imishinist/perfreport/internal/models"
	"github.com/imishinist/perfreport/internal/report"
)

func threshold(v float64) *float64 { return &v }

func testConfig(dir string) *config.Config {
	return &config.Config{
		ErrorRateThreshold: threshold(0.1),
		TPSThreshold:       threshold(1),
		TargetTPS:          100,
		SamplingRate:       1,
		StorageEnabled:     true,
		StoragePath:        filepath.Join(dir, "history.json"),
	}
}

func writeResults(t *testing.T, dir string) string {
	t.Helper()
	results := filepath.Join(dir, "results")
	require.NoError(t, os.MkdirAll(results, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(results, "shop.login.csv"), []byte(
		"label,timeStamp,elapsed,success,responseCode\n"+
			"GET /login,1000,10,true,200\n"+
			"GET /login,1500,30,true,200\n"+
			"POST /login,1900,20,true,200\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(results, "shop.checkout.csv"), []byte(
		"label,timeStamp,elapsed,success,responseCode\n"+
			"POST /checkout,1000,100,false,500\n"+
			"POST /checkout,3200,120,true,200\n"), 0o644))
	return results
}

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)

	opts := analyzeOptions{
		Generator:  "jmeter",
		ResultsDir: writeResults(t, dir),
		OutputDir:  filepath.Join(dir, "out"),
	}

	var out bytes.Buffer
	err := analyze(cfg, opts, zap.NewNop(), &out, func() time.Time { return now })
	require.NoError(t, err)

	reportPath := filepath.Join(dir, "out", "report_20240506_070809.json")
	assert.Contains(t, out.String(), "Report written to "+reportPath)

	doc, err := report.ReadDocument(reportPath)
	require.NoError(t, err)
	require.Len(t, doc.Requests, 2)
	assert.Equal(t, "shop.checkout", doc.Requests[0].TestName)
	assert.Equal(t, models.VerdictFail, doc.Requests[0].Verdict)
	assert.Equal(t, "shop.login", doc.Requests[1].TestName)
	assert.Equal(t, models.VerdictPass, doc.Requests[1].Verdict)
	assert.Equal(t, models.VerdictFail, doc.Overall.Verdict)

	h := history.Load(cfg.StoragePath)
	assert.Equal(t, history.History{
		"shop.checkout": {"2024-05-06T07:08:09": "FAIL"},
		"shop.login":    {"2024-05-06T07:08:09": "PASS"},
	}, h)
}

func TestAnalyzeDryRunWithoutHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	opts := analyzeOptions{
		Generator:  "jmeter",
		ResultsDir: writeResults(t, dir),
		OutputDir:  filepath.Join(dir, "out"),
		DryRun:     true,
		NoHistory:  true,
	}

	var out bytes.Buffer
	require.NoError(t, analyze(cfg, opts, zap.NewNop(), &out, time.Now))

	assert.Contains(t, out.String(), "Dry run enabled")
	assert.Contains(t, out.String(), "history storage is disabled")
	assert.NoDirExists(t, filepath.Join(dir, "out"))
	assert.NoFileExists(t, cfg.StoragePath)
}

func TestAnalyzeFailOnVerdict(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	opts := analyzeOptions{
		Generator:     "jmeter",
		ResultsDir:    writeResults(t, dir),
		OutputDir:     filepath.Join(dir, "out"),
		FailOnVerdict: true,
	}

	var out bytes.Buffer
	err := analyze(cfg, opts, zap.NewNop(), &out, time.Now)
	assert.EqualError(t, err, "verdict: FAIL")
}

func TestAnalyzeMissingThreshold(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.TPSThreshold = nil

	opts := analyzeOptions{
		Generator:  "jmeter",
		ResultsDir: writeResults(t, dir),
		OutputDir:  filepath.Join(dir, "out"),
	}

	var out bytes.Buffer
	err := analyze(cfg, opts, zap.NewNop(), &out, time.Now)
	assert.Error(t, err)
	assert.NoFileExists(t, cfg.StoragePath)
}

func TestAnalyzeUnknownGenerator(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	err := analyze(testConfig(dir), analyzeOptions{Generator: "locust", ResultsDir: dir}, zap.NewNop(), &out, time.Now)
	assert.Error(t, err)
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		name    string
		tags    []string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "empty",
			tags: nil,
			want: map[string]string{},
		},
		{
			name: "value containing equals",
			tags: []string{"env=staging", "query=a=b"},
			want: map[string]string{"env": "staging", "query": "a=b"},
		},
		{
			name:    "missing separator",
			tags:    []string{"env"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTags(tt.tags)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintHistory(t *testing.T) {
	h := history.History{
		"search": {"2024-01-02T00:00:00": "FAIL", "2024-01-01T00:00:00": "PASS"},
		"login":  {"2024-01-01T00:00:00": "PASS"},
	}

	var out bytes.Buffer
	require.NoError(t, printHistory(&out, h))

	want := "TEST    RUN                  VERDICT\n" +
		"login   2024-01-01T00:00:00  PASS\n" +
		"search  2024-01-01T00:00:00  PASS\n" +
		"search  2024-01-02T00:00:00  FAIL\n"
	assert.Equal(t, want, out.String())
}
