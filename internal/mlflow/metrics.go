package mlflow

import (
	"context"
	"fmt"

	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/imishinist/perfreport/internal/models"
)

// maxBatchMetrics is the per request metric limit of the LogBatch API.
const maxBatchMetrics = 1000

// LogBatchMetrics sends metrics in chunks of at most maxBatchMetrics.
func (c *Client) LogBatchMetrics(ctx context.Context, runID string, metrics []models.Metric) error {
	for _, chunk := range chunkMetrics(metrics, maxBatchMetrics) {
		batch := make([]ml.Metric, len(chunk))
		for i, m := range chunk {
			batch[i] = ml.Metric{
				Key:       m.Key,
				Value:     m.Value,
				Timestamp: m.Timestamp.UnixMilli(),
				Step:      m.Step,
			}
		}
		if err := c.client.Experiments.LogBatch(ctx, ml.LogBatch{RunId: runID, Metrics: batch}); err != nil {
			return fmt.Errorf("failed to log metric batch: %w", err)
		}
	}
	return nil
}

func chunkMetrics(metrics []models.Metric, size int) [][]models.Metric {
	var chunks [][]models.Metric
	for len(metrics) > size {
		chunks = append(chunks, metrics[:size])
		metrics = metrics[size:]
	}
	if len(metrics) > 0 {
		chunks = append(chunks, metrics)
	}
	return chunks
}
