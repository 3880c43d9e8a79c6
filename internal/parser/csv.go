package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/imishinist/perfreport/internal/normalize"
)

// ParseCSVRows reads a CSV file with a header line into rows keyed by
// column name. Short records leave the missing columns unset.
func ParseCSVRows(reader io.Reader) ([]string, []normalize.Row, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to parse CSV header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []normalize.Row
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse CSV rows: %w", err)
		}
		row := make(normalize.Row, len(columns))
		for i, value := range record {
			if i < len(columns) {
				row[columns[i]] = value
			}
		}
		rows = append(rows, row)
	}

	return columns, rows, nil
}
