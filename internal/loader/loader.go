// Package loader reads a results directory into one table per test.
//
// The file name without its extension is the test name. CSV files hold
// either generator output or resource snapshots, told apart by their
// header; parquet files hold canonical records; JSON and YAML files hold
// resource snapshots.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/imishinist/perfreport/internal/models"
	"github.com/imishinist/perfreport/internal/normalize"
	"github.com/imishinist/perfreport/internal/parser"
)

// ResourceColumns must all be present for a CSV file to be read as resource
// snapshots.
var ResourceColumns = []string{"timestamp", "podname", "namespace", "container", "cpu", "memory"}

type Loader struct {
	generator string
	logger    *zap.Logger
}

func New(generator string, logger *zap.Logger) (*Loader, error) {
	if err := normalize.ValidateGenerator(generator); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{generator: generator, logger: logger}, nil
}

// Supported reports whether a file name has a loadable extension.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".parquet", ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// TestName strips the extension from a result file name.
func TestName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads every supported file directly inside dir. Two files mapping to
// the same test name are an error.
func (l *Loader) Load(dir string) (map[string]models.Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !Supported(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	tables := make(map[string]models.Table, len(names))
	for _, name := range names {
		test := TestName(name)
		if _, ok := tables[test]; ok {
			return nil, fmt.Errorf("duplicate results for test %s: %s", test, name)
		}

		table, err := l.LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		l.logger.Debug("loaded results",
			zap.String("test", test),
			zap.String("file", name),
			zap.String("kind", string(table.Kind())),
			zap.Int("rows", table.Len()),
		)
		tables[test] = table
	}

	return tables, nil
}

// LoadFile reads a single result file.
func (l *Loader) LoadFile(path string) (models.Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".parquet" {
		records, err := ReadParquet(path)
		if err != nil {
			return nil, err
		}
		return &models.RequestTable{Records: records}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer file.Close()

	switch ext {
	case ".csv":
		header, rows, err := parser.ParseCSVRows(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		if isResourceHeader(header) {
			return &models.ResourceTable{Snapshots: snapshotsFromRows(rows)}, nil
		}
		records, err := normalize.Normalize(l.generator, rows)
		if err != nil {
			return nil, err
		}
		if dropped := len(rows) - len(records); dropped > 0 && l.generator == normalize.GeneratorJMeter {
			l.logger.Warn("dropped unparsable rows", zap.String("file", path), zap.Int("rows", dropped))
		}
		return &models.RequestTable{Records: records}, nil
	case ".json":
		snapshots, err := parser.ParseJSONSnapshots(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		return &models.ResourceTable{Snapshots: snapshots}, nil
	case ".yaml", ".yml":
		snapshots, err := parser.ParseYAMLSnapshots(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		return &models.ResourceTable{Snapshots: snapshots}, nil
	default:
		return nil, fmt.Errorf("unsupported results file: %s", path)
	}
}

func isResourceHeader(header []string) bool {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, c := range ResourceColumns {
		if !present[c] {
			return false
		}
	}
	return true
}

// snapshotsFromRows keeps CPU and memory as text; rows with an unparsable
// timestamp are dropped.
func snapshotsFromRows(rows []normalize.Row) []models.ResourceSnapshot {
	snapshots := make([]models.ResourceSnapshot, 0, len(rows))
	for _, row := range rows {
		ts, err := strconv.ParseInt(strings.TrimSpace(row["timestamp"]), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(row["timestamp"]), 64)
			if ferr != nil {
				continue
			}
			ts = int64(f)
		}
		snapshots = append(snapshots, models.ResourceSnapshot{
			Timestamp: ts,
			PodName:   row["podname"],
			Namespace: row["namespace"],
			Container: row["container"],
			CPU:       row["cpu"],
			Memory:    row["memory"],
		})
	}
	return snapshots
}
