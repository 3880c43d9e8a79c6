package parser

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/imishinist/perfreport/internal/models"
)

// ParseYAMLSnapshots decodes a YAML sequence of resource snapshots.
func ParseYAMLSnapshots(reader io.Reader) ([]models.ResourceSnapshot, error) {
	var data []models.ResourceSnapshot
	decoder := yaml.NewDecoder(reader)

	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse YAML snapshots: %w", err)
	}

	return data, nil
}
