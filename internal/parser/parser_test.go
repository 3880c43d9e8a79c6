package parser

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/perfreport/internal/normalize"
	"github.com/imishinist/perfreport/internal/quantity"
)

func TestParseCSVRows(t *testing.T) {
	input := "\ufefflabel,timeStamp,elapsed,success,responseCode\n" +
		"GET /a,1700000000000,12,true,200\n" +
		"\"POST /b, v2\",1700000000500,30,false\n"

	header, rows, err := ParseCSVRows(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"label", "timeStamp", "elapsed", "success", "responseCode"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, normalize.Row{
		"label":        "GET /a",
		"timeStamp":    "1700000000000",
		"elapsed":      "12",
		"success":      "true",
		"responseCode": "200",
	}, rows[0])
	assert.Equal(t, "POST /b, v2", rows[1]["label"])
	_, ok := rows[1]["responseCode"]
	assert.False(t, ok)
}

func TestParseCSVRowsEmpty(t *testing.T) {
	header, rows, err := ParseCSVRows(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, header)
	assert.Empty(t, rows)
}

func TestParseCSVRowsMalformed(t *testing.T) {
	_, _, err := ParseCSVRows(strings.NewReader("a,b\n\"unterminated,1\n"))
	assert.Error(t, err)
}

func TestParseJSONSnapshots(t *testing.T) {
	input := `[
		{"timestamp": 100, "podname": "api-0", "namespace": "perf", "container": "app", "cpu": "250m", "memory": "128Mi"},
		{"timestamp": 101, "podname": "api-0", "namespace": "perf", "container": "app", "cpu": 0.5, "memory": 1048576}
	]`

	snapshots, err := ParseJSONSnapshots(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	assert.Equal(t, int64(100), snapshots[0].Timestamp)
	assert.Equal(t, "api-0", snapshots[0].PodName)
	assert.Equal(t, "perf", snapshots[0].Namespace)
	assert.Equal(t, "app", snapshots[0].Container)
	assert.Equal(t, "250m", snapshots[0].CPU)
	assert.Equal(t, json.Number("0.5"), snapshots[1].CPU)
	assert.Equal(t, 500.0, quantity.ParseCPU(snapshots[1].CPU))
	assert.Equal(t, 1048576.0, quantity.ParseMemory(snapshots[1].Memory))
}

func TestParseJSONSnapshotsInvalid(t *testing.T) {
	_, err := ParseJSONSnapshots(strings.NewReader(`{"timestamp": 1}`))
	assert.Error(t, err)
}

func TestParseYAMLSnapshots(t *testing.T) {
	input := `
- timestamp: 100
  podname: api-0
  namespace: perf
  container: app
  cpu: 250m
  memory: 128Mi
- timestamp: 101
  podname: api-1
  cpu: 1
  memory: 2048
`

	snapshots, err := ParseYAMLSnapshots(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	assert.Equal(t, "250m", snapshots[0].CPU)
	assert.Equal(t, "api-1", snapshots[1].PodName)
	assert.Equal(t, 1000.0, quantity.ParseCPU(snapshots[1].CPU))
	assert.Equal(t, 2048.0, quantity.ParseMemory(snapshots[1].Memory))
}
