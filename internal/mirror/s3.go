package mirror

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	gdconfig "github.com/tanq16/gdfetch/internal/config"
)

// Uploader is the part of manager.Uploader the mirror needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Mirror copies finished downloads to s3://bucket/prefix/<file name>.
type S3Mirror struct {
	bucket   string
	prefix   string
	uploader Uploader
}

func NewS3Mirror(ctx context.Context, cfg gdconfig.MirrorConfig) (*S3Mirror, error) {
	opts := []func(*config.LoadOptions) error{config.WithRetryMode("adaptive")}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	log.Debug().Str("op", "mirror/s3").Msgf("mirroring downloads to s3://%s/%s", cfg.Bucket, strings.Trim(cfg.Prefix, "/"))
	return NewS3MirrorWithUploader(cfg.Bucket, cfg.Prefix, manager.NewUploader(client)), nil
}

func NewS3MirrorWithUploader(bucket, prefix string, uploader Uploader) *S3Mirror {
	return &S3Mirror{bucket: bucket, prefix: strings.Trim(prefix, "/"), uploader: uploader}
}

// ObjectKey is where a local file lands in the bucket.
func (m *S3Mirror) ObjectKey(localPath string) string {
	name := filepath.Base(localPath)
	if m.prefix == "" {
		return name
	}
	return path.Join(m.prefix, name)
}

func (m *S3Mirror) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()
	key := m.ObjectKey(localPath)
	if _, err := m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return "", fmt.Errorf("uploading to s3://%s/%s: %w", m.bucket, key, err)
	}
	location := fmt.Sprintf("s3://%s/%s", m.bucket, key)
	log.Debug().Str("op", "mirror/s3").Msgf("uploaded %s to %s", localPath, location)
	return location, nil
}
