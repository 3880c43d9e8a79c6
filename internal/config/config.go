package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/imishinist/perfreport/internal/analysis"
)

// Databricks domain suffixes for URL detection
var databricksDomains = []string{
	".cloud.databricks.com",
	".azuredatabricks.net",
	".gcp.databricks.com",
}

// Valid configuration values
var (
	validLogLevels = map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	validLogFormats = map[string]bool{
		"json": true, "console": true,
	}
)

// Config keys shared by flags, environment and config files.
const (
	KeyErrorRateThreshold = "evaluation.error_rate_threshold"
	KeyTPSThreshold       = "evaluation.tps_threshold"
	KeyTargetTPS          = "target_tps"
	KeySamplingRate       = "resource_sampling_rate_in_seconds"
	KeyStorageEnabled     = "storage.enabled"
	KeyStoragePath        = "storage.path"
	KeyLogLevel           = "log.level"
	KeyLogFormat          = "log.format"
	KeyMetricsTextfile    = "metrics.textfile"
	KeyTrackingURI        = "mlflow.tracking_uri"
	KeyExperimentID       = "mlflow.experiment_id"
	KeyDatabricksHost     = "databricks_host"
	KeyDatabricksToken    = "databricks_token"
	KeyS3Bucket           = "s3.bucket"
	KeyS3Prefix           = "s3.prefix"
	KeyS3Region           = "s3.region"
	KeyS3Endpoint         = "s3.endpoint"
)

// SetDefaults registers default values. Thresholds have none on purpose.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyTargetTPS, 100)
	v.SetDefault(KeySamplingRate, 1)
	v.SetDefault(KeyStorageEnabled, true)
	v.SetDefault(KeyStoragePath, "history.json")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyTrackingURI, "http://localhost:5000")
}

type Config struct {
	ErrorRateThreshold *float64
	TPSThreshold       *float64
	TargetTPS          float64
	SamplingRate       float64
	StorageEnabled     bool
	StoragePath        string
	LogLevel           string
	LogFormat          string
	MetricsTextfile    string
	TrackingURI        string
	ExperimentID       string
	DatabricksHost     string
	DatabricksToken    string
	S3Bucket           string
	S3Prefix           string
	S3Region           string
	S3Endpoint         string
}

func optionalFloat(v *viper.Viper, key string) *float64 {
	if !v.IsSet(key) {
		return nil
	}
	f := v.GetFloat64(key)
	return &f
}

// New snapshots the global viper instance.
func New() *Config {
	return FromViper(viper.GetViper())
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		ErrorRateThreshold: optionalFloat(v, KeyErrorRateThreshold),
		TPSThreshold:       optionalFloat(v, KeyTPSThreshold),
		TargetTPS:          v.GetFloat64(KeyTargetTPS),
		SamplingRate:       v.GetFloat64(KeySamplingRate),
		StorageEnabled:     v.GetBool(KeyStorageEnabled),
		StoragePath:        v.GetString(KeyStoragePath),
		LogLevel:           v.GetString(KeyLogLevel),
		LogFormat:          v.GetString(KeyLogFormat),
		MetricsTextfile:    v.GetString(KeyMetricsTextfile),
		TrackingURI:        v.GetString(KeyTrackingURI),
		ExperimentID:       v.GetString(KeyExperimentID),
		DatabricksHost:     v.GetString(KeyDatabricksHost),
		DatabricksToken:    v.GetString(KeyDatabricksToken),
		S3Bucket:           v.GetString(KeyS3Bucket),
		S3Prefix:           v.GetString(KeyS3Prefix),
		S3Region:           v.GetString(KeyS3Region),
		S3Endpoint:         v.GetString(KeyS3Endpoint),
	}
}

// Thresholds returns the evaluation limits. Unset limits stay nil and are
// reported when a verdict is evaluated.
func (c *Config) Thresholds() analysis.Thresholds {
	return analysis.Thresholds{
		ErrorRate: c.ErrorRateThreshold,
		TPS:       c.TPSThreshold,
	}
}

func (c *Config) Validate() error {
	// Validate thresholds
	if c.ErrorRateThreshold != nil {
		if r := *c.ErrorRateThreshold; r < 0 || math.IsNaN(r) {
			return fmt.Errorf("invalid error rate threshold: %v (must be >= 0)", r)
		}
	}
	if c.TPSThreshold != nil {
		if tps := *c.TPSThreshold; tps < 0 || math.IsNaN(tps) {
			return fmt.Errorf("invalid tps threshold: %v (must be >= 0)", tps)
		}
	}

	// Validate resource sampling rate
	if c.SamplingRate <= 0 {
		return fmt.Errorf("invalid resource sampling rate: %v (must be > 0)", c.SamplingRate)
	}

	// Validate logging
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.LogFormat)
	}

	if c.StorageEnabled && c.StoragePath == "" {
		return fmt.Errorf("storage path is required when storage is enabled")
	}

	return nil
}

// ValidateMLflow checks the settings needed to publish runs.
func (c *Config) ValidateMLflow() error {
	if c.TrackingURI == "" {
		return fmt.Errorf("tracking URI is required")
	}
	if c.ExperimentID == "" {
		return fmt.Errorf("experiment ID is required")
	}
	return nil
}

// IsDatabricks checks if the tracking URI points to Databricks
func (c *Config) IsDatabricks() bool {
	if c.TrackingURI == "databricks" {
		return true
	}

	// Check for databricks:// protocol
	if strings.HasPrefix(c.TrackingURI, "databricks://") {
		return true
	}

	// Check for Databricks URLs
	if strings.HasPrefix(c.TrackingURI, "https://") {
		host := c.extractHostFromURL(c.TrackingURI)
		return c.isDatabricksHost(host)
	}

	return false
}

// extractHostFromURL extracts the hostname from a URL
func (c *Config) extractHostFromURL(url string) string {
	host := strings.TrimPrefix(url, "https://")
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	return host
}

func (c *Config) isDatabricksHost(host string) bool {
	for _, domain := range databricksDomains {
		if strings.HasSuffix(host, domain) {
			return true
		}
	}
	return false
}

// GetDatabricksProfile extracts the profile name from databricks://{profile} URI
func (c *Config) GetDatabricksProfile() string {
	if !strings.HasPrefix(c.TrackingURI, "databricks://") {
		return ""
	}

	profile := strings.TrimPrefix(c.TrackingURI, "databricks://")
	if idx := strings.Index(profile, "/"); idx != -1 {
		profile = profile[:idx]
	}
	return profile
}
