package mlflow

import (
	"context"
	"fmt"

	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/imishinist/perfreport/internal/models"
)

// maxBatchParams is the per request parameter limit of the LogBatch API.
const maxBatchParams = 100

// LogParams records params with as few LogBatch calls as possible. Params
// are immutable in MLflow, so logging the same key twice with a different
// value fails on the server.
func (c *Client) LogParams(ctx context.Context, runID string, params []models.Parameter) error {
	for start := 0; start < len(params); start += maxBatchParams {
		end := min(start+maxBatchParams, len(params))

		batch := make([]ml.Param, 0, end-start)
		for _, param := range params[start:end] {
			batch = append(batch, ml.Param{Key: param.Key, Value: param.Value})
		}
		if err := c.client.Experiments.LogBatch(ctx, ml.LogBatch{RunId: runID, Params: batch}); err != nil {
			return fmt.Errorf("failed to log parameters: %w", err)
		}
	}

	return nil
}
