package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/perfreport/internal/models"
	"github.com/imishinist/perfreport/internal/normalize"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestNew(t *testing.T) {
	_, err := New("gatling", nil)
	assert.ErrorIs(t, err, normalize.ErrUnknownGenerator)

	l, err := New(normalize.GeneratorJMeter, nil)
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestTestName(t *testing.T) {
	assert.Equal(t, "checkout.login", TestName("/tmp/results/checkout.login.csv"))
	assert.Equal(t, "login_resources", TestName("login_resources.yaml"))
}

func TestLoadJMeterDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "login.csv", "label,timeStamp,elapsed,success,responseCode\n"+
		"GET /login,1000,10,true,200\n"+
		"GET /login,2500,30,false,Non HTTP response code: java.net.SocketException\n"+
		"GET /login,bad,30,false,500\n")
	writeFile(t, dir, "login_resources.csv", "timestamp,podname,namespace,container,cpu,memory\n"+
		"100,api-0,perf,app,250m,128Mi\n"+
		"oops,api-0,perf,app,250m,128Mi\n")
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))

	l, err := New(normalize.GeneratorJMeter, nil)
	require.NoError(t, err)

	tables, err := l.Load(dir)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	requests, ok := tables["login"].(*models.RequestTable)
	require.True(t, ok)
	require.Len(t, requests.Records, 2)
	assert.Equal(t, models.Record{Label: "GET /login", TimestampMs: 2500, ElapsedMs: 30, Success: false, ResponseCode: 0}, requests.Records[1])

	resources, ok := tables["login_resources"].(*models.ResourceTable)
	require.True(t, ok)
	require.Len(t, resources.Snapshots, 1)
	assert.Equal(t, models.ResourceSnapshot{
		Timestamp: 100, PodName: "api-0", Namespace: "perf", Container: "app", CPU: "250m", Memory: "128Mi",
	}, resources.Snapshots[0])
}

func TestLoadK6Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "search.csv", "metric_name,timestamp,metric_value,method,url,status\n"+
		"http_reqs,1700000000,1,GET,/search,200\n"+
		"http_req_duration,1700000000,12.5,GET,/search,200\n"+
		"http_req_duration,1700000001,40,GET,/search,503\n")

	l, err := New(normalize.GeneratorK6, nil)
	require.NoError(t, err)

	tables, err := l.Load(dir)
	require.NoError(t, err)

	requests := tables["search"].(*models.RequestTable)
	require.Len(t, requests.Records, 2)
	assert.Equal(t, "GET /search", requests.Records[0].Label)
	assert.Equal(t, int64(1700000000000), requests.Records[0].TimestampMs)
	assert.False(t, requests.Records[1].Success)
}

func TestLoadSnapshotFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_resources.json", `[{"timestamp": 1, "podname": "p", "cpu": "1", "memory": "1Ki"}]`)
	writeFile(t, dir, "b_resources.yml", "- timestamp: 2\n  podname: q\n  cpu: 500m\n  memory: 1Mi\n")

	l, err := New(normalize.GeneratorJMeter, nil)
	require.NoError(t, err)

	tables, err := l.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, models.KindResource, tables["a_resources"].Kind())
	assert.Equal(t, 1, tables["a_resources"].Len())
	assert.Equal(t, "q", tables["b_resources"].(*models.ResourceTable).Snapshots[0].PodName)
}

func TestLoadDuplicateTest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.json", `[]`)
	writeFile(t, dir, "x.yaml", "[]\n")

	l, err := New(normalize.GeneratorJMeter, nil)
	require.NoError(t, err)

	_, err = l.Load(dir)
	assert.ErrorContains(t, err, "duplicate results for test x")
}

func TestLoadMalformedFileAborts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{`)

	l, err := New(normalize.GeneratorJMeter, nil)
	require.NoError(t, err)

	_, err = l.Load(dir)
	assert.Error(t, err)
}

func TestLoadMissingDirectory(t *testing.T) {
	l, err := New(normalize.GeneratorJMeter, nil)
	require.NoError(t, err)

	_, err = l.Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	records := []models.Record{
		{Label: "GET /a", TimestampMs: 1700000000000, ElapsedMs: 12.5, Success: true, ResponseCode: 200},
		{Label: "POST /b", TimestampMs: 1700000000999, ElapsedMs: 300, Success: false, ResponseCode: 503},
	}
	path := filepath.Join(dir, "export", "smoke.parquet")

	require.NoError(t, WriteParquet(path, records))

	got, err := ReadParquet(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	l, err := New(normalize.GeneratorJMeter, nil)
	require.NoError(t, err)
	tables, err := l.Load(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, &models.RequestTable{Records: records}, tables["smoke"])
}
