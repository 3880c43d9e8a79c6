package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/imishinist/perfreport/internal/models"
	timeutils "github.com/imishinist/perfreport/internal/time"
)

// History maps a test name to its verdicts keyed by run time.
type History map[string]map[string]string

// Store persists History as a single JSON document. It assumes a single
// writer; concurrent appends lose updates.
type Store struct {
	path   string
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Store)

// WithClock overrides the time source used for history keys.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the history file. A missing or unreadable file yields an empty
// history, and entries that are not objects of strings are ignored.
func (s *Store) Load() History {
	h := History{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read history, starting empty", zap.String("path", s.path), zap.Error(err))
		}
		return h
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("corrupt history, starting empty", zap.String("path", s.path), zap.Error(err))
		return h
	}

	for test, value := range raw {
		var entries map[string]any
		if err := json.Unmarshal(value, &entries); err != nil || entries == nil {
			s.logger.Debug("ignoring history entry", zap.String("test", test))
			continue
		}
		verdicts := make(map[string]string, len(entries))
		for ts, v := range entries {
			if verdict, ok := v.(string); ok {
				verdicts[ts] = verdict
			}
		}
		h[test] = verdicts
	}
	return h
}

// Save rewrites the whole history file, creating parent directories.
func (s *Store) Save(h History) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// Append records the verdict of every request result under the current time
// and persists the file. Resource results carry no verdict and are skipped.
func (s *Store) Append(results []models.Result) (History, error) {
	h := s.Load()
	key := timeutils.HistoryKey(s.now())

	for _, result := range results {
		r, ok := result.(*models.AnalysisResult)
		if !ok {
			continue
		}
		if h[r.TestName] == nil {
			h[r.TestName] = make(map[string]string)
		}
		h[r.TestName][key] = string(r.Verdict)
	}

	if err := s.Save(h); err != nil {
		return nil, err
	}
	s.logger.Debug("history updated", zap.String("path", s.path), zap.String("key", key), zap.Int("tests", len(h)))
	return h, nil
}

// Load reads the history file at path.
func Load(path string) History {
	return NewStore(path).Load()
}

// Append records the verdicts of results in the history file at path.
func Append(results []models.Result, path string) (History, error) {
	return NewStore(path).Append(results)
}

// Tests returns the test names of h in sorted order.
func (h History) Tests() []string {
	tests := make([]string, 0, len(h))
	for test := range h {
		tests = append(tests, test)
	}
	sort.Strings(tests)
	return tests
}

// Runs returns the run keys of test in chronological order. Keys sort
// lexically in time order.
func (h History) Runs(test string) []string {
	runs := make([]string, 0, len(h[test]))
	for ts := range h[test] {
		runs = append(runs, ts)
	}
	sort.Strings(runs)
	return runs
}
