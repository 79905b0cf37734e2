package logvault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ArchiveConfig configures shipping of rollover archives to S3 or an
// S3-compatible service (MinIO, etc.).
type S3ArchiveConfig struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	// Endpoint overrides the AWS endpoint for S3-compatible services.
	Endpoint string `yaml:"endpoint"`
	// AccessKeyID and SecretAccessKey authenticate the uploader. Prefer IAM
	// roles or environment credentials (AWS_ACCESS_KEY_ID,
	// AWS_SECRET_ACCESS_KEY); never commit these to source control.
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	// Prefix is prepended to every object key.
	Prefix string `yaml:"prefix"`
	// UsePathStyle selects path-style addressing.
	UsePathStyle bool `yaml:"use_path_style"`
}

// s3Uploader ships archive files to a bucket. Uploads happen off the write
// path; a failed upload leaves the local archive in place.
type s3Uploader struct {
	client *s3.Client
	cfg    S3ArchiveConfig
}

func newS3Uploader(cfg S3ArchiveConfig) (*s3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	return &s3Uploader{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		cfg:    cfg,
	}, nil
}

// Upload puts one archive file under the configured prefix, keyed by its
// base name.
func (u *s3Uploader) Upload(ctx context.Context, archivePath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	key := path.Join(u.cfg.Prefix, filepath.Base(archivePath))
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}
	return nil
}
