package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// PutObjectAPI is the subset of the S3 client used by Uploader.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Options struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
}

// Uploader copies report artifacts into an S3 compatible bucket.
type Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

// NewUploader builds an S3 client from the default credential chain. A
// custom endpoint switches to path style addressing for S3 compatible
// stores.
func NewUploader(ctx context.Context, opts Options, logger *zap.Logger) (*Uploader, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewUploaderWithClient(client, opts.Bucket, opts.Prefix, logger), nil
}

func NewUploaderWithClient(client PutObjectAPI, bucket, prefix string, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// Key returns the object key for a file name.
func (u *Uploader) Key(name string) string {
	if u.prefix == "" {
		return name
	}
	return path.Join(u.prefix, name)
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "application/json"
	case ".prom":
		return "text/plain; version=0.0.4"
	case ".parquet":
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}

// UploadFile stores the local file under its base name and returns the
// object URI.
func (u *Uploader) UploadFile(ctx context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("cannot upload directory: %s", localPath)
	}

	key := u.Key(filepath.Base(localPath))
	u.logger.Debug("s3 put",
		zap.String("bucket", u.bucket),
		zap.String("key", key),
		zap.Int64("size", info.Size()),
	)

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}

	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
