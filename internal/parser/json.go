package parser

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/imishinist/perfreport/internal/models"
)

// ParseJSONSnapshots decodes a JSON array of resource snapshots.
func ParseJSONSnapshots(reader io.Reader) ([]models.ResourceSnapshot, error) {
	var data []models.ResourceSnapshot
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()

	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON snapshots: %w", err)
	}

	return data, nil
}
