package events

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/flameborn/validator/internal/models"
)

// Archiver stores encoded review events and returns the object key.
type Archiver interface {
	Archive(ctx context.Context, ev models.ReviewEvent, body []byte) (string, error)
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Archiver writes events to s3://<bucket>/<prefix>/reviews/YYYY/MM/DD/<eventID>.json.
type S3Archiver struct {
	bucket   string
	prefix   string
	uploader uploader
}

// NewS3Archiver resolves credentials and region from the standard AWS
// environment (AWS_REGION, AWS_PROFILE, ...).
func NewS3Archiver(ctx context.Context, bucket, prefix string) (*S3Archiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 archive: bucket required")
	}
	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Archiver{
		bucket:   bucket,
		prefix:   prefix,
		uploader: manager.NewUploader(s3.NewFromConfig(cfg)),
	}, nil
}

func (a *S3Archiver) Archive(ctx context.Context, ev models.ReviewEvent, body []byte) (string, error) {
	key := ObjectKey(a.prefix, ev)
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(a.bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(body),
		ContentType:          aws.String("application/json"),
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return key, nil
}

// ObjectKey partitions the archive by the day the review happened.
func ObjectKey(prefix string, ev models.ReviewEvent) string {
	ts := ev.ReviewedAt
	if ts.IsZero() {
		ts = ev.CreatedAt
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	year, month, day := ts.UTC().Date()
	return path.Join(prefix, "reviews",
		fmt.Sprintf("%04d", year),
		fmt.Sprintf("%02d", int(month)),
		fmt.Sprintf("%02d", day),
		ev.ID+".json",
	)
}
