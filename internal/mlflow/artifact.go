package mlflow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// UploadArtifact uploads a file as an artifact of the run. Runs stored on
// the MLflow artifacts service or on a local file store are supported.
func (c *Client) UploadArtifact(ctx context.Context, runID, filePath, artifactPath string) error {
	run, err := c.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get artifact URI: %w", err)
	}
	if run.ArtifactURI == "" {
		return fmt.Errorf("artifact URI not found for run %s", runID)
	}

	if artifactPath == "" {
		artifactPath = filepath.Base(filePath)
	}

	return c.uploadToStorage(ctx, run.ArtifactURI, filePath, artifactPath)
}

func (c *Client) uploadToStorage(ctx context.Context, artifactURI, filePath, artifactPath string) error {
	switch {
	case strings.HasPrefix(artifactURI, "mlflow-artifacts:/"):
		return c.uploadToMLflowArtifacts(ctx, artifactURI, filePath, artifactPath)
	case strings.HasPrefix(artifactURI, "file://"), strings.HasPrefix(artifactURI, "/"):
		return uploadToLocalFS(artifactURI, filePath, artifactPath)
	default:
		return fmt.Errorf("unsupported artifact URI scheme: %s", artifactURI)
	}
}

// uploadToMLflowArtifacts uploads using MLflow Artifacts Service
func (c *Client) uploadToMLflowArtifacts(ctx context.Context, artifactURI, filePath, artifactPath string) error {
	experimentID, runID, err := extractIDsFromArtifactURI(artifactURI)
	if err != nil {
		return fmt.Errorf("failed to extract IDs from artifact URI: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	// /api/2.0/mlflow-artifacts/artifacts/{experiment_id}/{run_id}/artifacts/{artifact_path}
	baseURL := strings.TrimSuffix(c.config.TrackingURI, "/")
	url := fmt.Sprintf("%s/api/2.0/mlflow-artifacts/artifacts/%s/%s/artifacts/%s", baseURL, experimentID, runID, artifactPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	c.addAuthHeaders(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload to MLflow Artifacts Service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("MLflow Artifacts Service upload failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

func uploadToLocalFS(artifactURI, filePath, artifactPath string) error {
	localPath := filepath.Join(strings.TrimPrefix(artifactURI, "file://"), artifactPath)

	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	sourceFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	if _, err := destFile.ReadFrom(sourceFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	return nil
}

// extractIDsFromArtifactURI extracts experiment ID and run ID from a URI
// like mlflow-artifacts:/0/47485d6a0b734e37aaddc60be04b7371/artifacts
func extractIDsFromArtifactURI(artifactURI string) (string, string, error) {
	parts := strings.Split(strings.TrimPrefix(artifactURI, "mlflow-artifacts:"), "/")
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid mlflow-artifacts URI format: %s", artifactURI)
	}
	return parts[0], parts[1], nil
}

// addAuthHeaders adds appropriate authentication headers to the request
func (c *Client) addAuthHeaders(req *http.Request) {
	if !c.config.IsDatabricks() {
		return
	}
	if c.client != nil && c.client.Config != nil && c.client.Config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.client.Config.Token)
	} else if c.config.DatabricksToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.DatabricksToken)
	}
}
