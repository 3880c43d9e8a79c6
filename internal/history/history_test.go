package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/perfreport/internal/models"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	current := c.t
	c.t = c.t.Add(time.Second)
	return current
}

func requestResult(name string, verdict models.Verdict) *models.AnalysisResult {
	return &models.AnalysisResult{TestName: name, Verdict: verdict}
}

func TestLoadMissingFile(t *testing.T) {
	h := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Empty(t, h)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Empty(t, Load(path))
}

func TestLoadIgnoresNonObjectEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	content := `{"a": {"2024-01-01T00:00:00": "PASS", "bad": 3}, "b": "oops", "c": [1]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	h := Load(path)

	assert.Equal(t, History{"a": {"2024-01-01T00:00:00": "PASS"}}, h)
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.json")
	clock := &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)}
	store := NewStore(path, WithClock(clock.now))

	for i := 0; i < 3; i++ {
		_, err := store.Append([]models.Result{
			requestResult("login", models.VerdictPass),
			&models.ResourceResult{TestName: "login_resources"},
		})
		require.NoError(t, err)
	}
	h, err := store.Append([]models.Result{requestResult("login", models.VerdictFail)})
	require.NoError(t, err)

	assert.Equal(t, []string{"login"}, h.Tests())
	assert.Equal(t, []string{
		"2024-03-01T10:00:00",
		"2024-03-01T10:00:01",
		"2024-03-01T10:00:02",
		"2024-03-01T10:00:03",
	}, h.Runs("login"))
	assert.Equal(t, "FAIL", h["login"]["2024-03-01T10:00:03"])

	assert.Equal(t, h, store.Load())
}

func TestAppendSameSecondOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	store := NewStore(path, WithClock(func() time.Time { return fixed }))

	_, err := store.Append([]models.Result{requestResult("a", models.VerdictPass)})
	require.NoError(t, err)
	h, err := store.Append([]models.Result{requestResult("a", models.VerdictFail)})
	require.NoError(t, err)

	assert.Equal(t, History{"a": {"2024-03-01T10:00:00": "FAIL"}}, h)
}

func TestAppendKeepsOtherTests(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, NewStore(path).Save(History{"old": {"2023-01-01T00:00:00": "PASS"}}))

	h, err := Append([]models.Result{requestResult("new", models.VerdictPass)}, path)
	require.NoError(t, err)

	assert.Equal(t, []string{"new", "old"}, h.Tests())
	assert.Equal(t, "PASS", h["old"]["2023-01-01T00:00:00"])
}

func TestSaveIndentation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, NewStore(path).Save(History{"a": {"k": "PASS"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": {\n    \"k\": \"PASS\"\n  }\n}", string(data))
}
