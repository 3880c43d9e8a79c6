package mlflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/imishinist/perfreport/internal/models"
)

func (c *Client) CreateRun(ctx context.Context, config *models.RunConfig) (*models.RunInfo, error) {
	if config.ExperimentID == nil || *config.ExperimentID == "" {
		return nil, fmt.Errorf("experiment ID must be provided")
	}
	experimentID := *config.ExperimentID

	startTime := time.Now()
	if config.StartTime != nil {
		startTime = *config.StartTime
	}

	runName := "perfreport-" + startTime.Format("2006-01-02-15-04-05")
	if config.RunName != nil {
		runName = *config.RunName
	}

	// Sorted for stable requests
	keys := make([]string, 0, len(config.Tags))
	for key := range config.Tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tags := make([]ml.RunTag, 0, len(keys)+2)
	for _, key := range keys {
		tags = append(tags, ml.RunTag{
			Key:   key,
			Value: config.Tags[key],
		})
	}
	tags = append(tags, ml.RunTag{
		Key:   "mlflow.runName",
		Value: runName,
	})
	description := ""
	if config.Description != nil {
		description = *config.Description
		tags = append(tags, ml.RunTag{
			Key:   "mlflow.note.content",
			Value: description,
		})
	}

	resp, err := c.client.Experiments.CreateRun(ctx, ml.CreateRun{
		ExperimentId: experimentID,
		RunName:      runName,
		StartTime:    startTime.UnixMilli(),
		Tags:         tags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return &models.RunInfo{
		RunID:        resp.Run.Info.RunId,
		ExperimentID: experimentID,
		RunName:      runName,
		Status:       string(models.RunStatusRunning),
		StartTime:    startTime,
		Tags:         config.Tags,
		Description:  description,
		ArtifactURI:  resp.Run.Info.ArtifactUri,
	}, nil
}

// UpdateRun sets the run status. Terminal statuses also record endTime.
func (c *Client) UpdateRun(ctx context.Context, runID string, status models.RunStatus, endTime time.Time) error {
	var mlStatus ml.UpdateRunStatus
	switch status {
	case models.RunStatusRunning:
		mlStatus = ml.UpdateRunStatusRunning
	case models.RunStatusFinished:
		mlStatus = ml.UpdateRunStatusFinished
	case models.RunStatusFailed:
		mlStatus = ml.UpdateRunStatusFailed
	case models.RunStatusKilled:
		mlStatus = ml.UpdateRunStatusKilled
	default:
		mlStatus = ml.UpdateRunStatusFinished
	}

	updateRun := ml.UpdateRun{
		RunId:  runID,
		Status: mlStatus,
	}

	if status != models.RunStatusRunning {
		updateRun.EndTime = endTime.UnixMilli()
	}

	_, err := c.client.Experiments.UpdateRun(ctx, updateRun)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return nil
}

func (c *Client) GetRun(ctx context.Context, runID string) (*models.RunInfo, error) {
	resp, err := c.client.Experiments.GetRun(ctx, ml.GetRunRequest{
		RunId: runID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run := resp.Run
	tags := make(map[string]string)
	for _, tag := range run.Data.Tags {
		tags[tag.Key] = tag.Value
	}

	runInfo := &models.RunInfo{
		RunID:        run.Info.RunId,
		ExperimentID: run.Info.ExperimentId,
		Status:       string(run.Info.Status),
		StartTime:    time.UnixMilli(run.Info.StartTime),
		Tags:         tags,
		RunName:      tags["mlflow.runName"],
		Description:  tags["mlflow.note.content"],
		ArtifactURI:  run.Info.ArtifactUri,
	}

	if run.Info.EndTime != 0 {
		endTime := time.UnixMilli(run.Info.EndTime)
		runInfo.EndTime = &endTime
	}

	return runInfo, nil
}
