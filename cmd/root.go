package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/imishinist/perfreport/internal/config"
	"github.com/imishinist/perfreport/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "perfreport",
	Short: "Load test analysis tool",
	Long: `A command line tool that turns raw load test results into per-second
metrics, per-endpoint aggregates and a PASS/FAIL verdict.
Supports JMeter and k6 results plus container resource snapshots.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (JSON or YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (json/console)")
	rootCmd.PersistentFlags().String("tracking-uri", "", "MLflow tracking URI (overrides MLFLOW_TRACKING_URI)")
	rootCmd.PersistentFlags().String("experiment-id", "", "Experiment ID (overrides MLFLOW_EXPERIMENT_ID)")
	viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag(config.KeyTrackingURI, rootCmd.PersistentFlags().Lookup("tracking-uri"))
	viper.BindPFlag(config.KeyExperimentID, rootCmd.PersistentFlags().Lookup("experiment-id"))
}

func initConfig() {
	// Environment variables: PERFREPORT_EVALUATION_TPS_THRESHOLD etc.
	viper.SetEnvPrefix("PERFREPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Also bind the MLflow and Databricks environment variables
	viper.BindEnv(config.KeyTrackingURI, "PERFREPORT_MLFLOW_TRACKING_URI", "MLFLOW_TRACKING_URI")
	viper.BindEnv(config.KeyExperimentID, "PERFREPORT_MLFLOW_EXPERIMENT_ID", "MLFLOW_EXPERIMENT_ID")
	viper.BindEnv(config.KeyDatabricksHost, "DATABRICKS_HOST")
	viper.BindEnv(config.KeyDatabricksToken, "DATABRICKS_TOKEN")

	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		checkError(viper.ReadInConfig())
	}
}

// loadConfig snapshots and validates the configuration and builds the
// logger every command uses.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func checkError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
