package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/imishinist/perfreport/internal/config"
	"github.com/imishinist/perfreport/internal/mlflow"
	"github.com/imishinist/perfreport/internal/report"
	"github.com/imishinist/perfreport/internal/storage"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish analysis reports",
	Long:  "Publish a report written by analyze to MLflow or to an S3 bucket",
}

var publishMLflowCmd = &cobra.Command{
	Use:   "mlflow",
	Short: "Log a report to MLflow",
	Long:  "Create one MLflow run per analyzed test with its metrics, thresholds and verdict",
	RunE:  publishMLflow,
}

var publishS3Cmd = &cobra.Command{
	Use:   "s3",
	Short: "Upload files to S3",
	Long:  "Upload report, history or metrics files to an S3 compatible bucket",
	RunE:  publishS3,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.AddCommand(publishMLflowCmd)
	publishCmd.AddCommand(publishS3Cmd)

	publishMLflowCmd.Flags().String("from-file", "", "Report JSON written by analyze (required)")
	publishMLflowCmd.Flags().StringArray("tag", []string{}, "Extra run tags in key=value format")
	publishMLflowCmd.Flags().Bool("no-artifact", false, "Do not attach the report file to the runs")
	publishMLflowCmd.MarkFlagRequired("from-file")

	publishS3Cmd.Flags().StringArray("file", []string{}, "File to upload (repeatable, required)")
	publishS3Cmd.Flags().String("bucket", "", "Bucket (overrides s3.bucket)")
	publishS3Cmd.Flags().String("prefix", "", "Key prefix (overrides s3.prefix)")
	publishS3Cmd.Flags().String("endpoint", "", "S3 compatible endpoint URL (overrides s3.endpoint)")
	publishS3Cmd.MarkFlagRequired("file")
	viper.BindPFlag(config.KeyS3Bucket, publishS3Cmd.Flags().Lookup("bucket"))
	viper.BindPFlag(config.KeyS3Prefix, publishS3Cmd.Flags().Lookup("prefix"))
	viper.BindPFlag(config.KeyS3Endpoint, publishS3Cmd.Flags().Lookup("endpoint"))
}

func publishMLflow(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	path, _ := cmd.Flags().GetString("from-file")
	tags, _ := cmd.Flags().GetStringArray("tag")
	noArtifact, _ := cmd.Flags().GetBool("no-artifact")

	tagMap, err := parseTags(tags)
	if err != nil {
		return err
	}

	doc, err := report.ReadDocument(path)
	if err != nil {
		return err
	}

	client, err := mlflow.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MLflow client: %w", err)
	}

	artifact := path
	if noArtifact {
		artifact = ""
	}

	ctx := context.Background()
	runs, err := mlflow.NewPublisher(client, cfg.ExperimentID, logger).WithTags(tagMap).Publish(ctx, doc, artifact)
	if err != nil {
		return err
	}

	// Output run IDs for shell scripting
	for _, run := range runs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", run.RunID, run.RunName, run.Status)
	}
	return nil
}

func publishS3(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	files, _ := cmd.Flags().GetStringArray("file")

	ctx := context.Background()
	uploader, err := storage.NewUploader(ctx, storage.Options{
		Bucket:   cfg.S3Bucket,
		Prefix:   cfg.S3Prefix,
		Region:   cfg.S3Region,
		Endpoint: cfg.S3Endpoint,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create S3 uploader: %w", err)
	}

	for _, file := range files {
		uri, err := uploader.UploadFile(ctx, file)
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", file, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), uri)
	}
	return nil
}

// parseTags parses tag strings in key=value format
func parseTags(tags []string) (map[string]string, error) {
	tagMap := make(map[string]string)
	for _, tag := range tags {
		parts := strings.SplitN(tag, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid tag format: %s (expected key=value)", tag)
		}
		tagMap[parts[0]] = parts[1]
	}
	return tagMap, nil
}
