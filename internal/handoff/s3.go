package handoff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/voyago/travel-concierge/pkg/logging"
)

// S3API is the subset of the S3 client used by S3Writer.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Writer archives completed snapshots as JSON objects. If bucket is empty,
// all operations are no-ops.
type S3Writer struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

func NewS3Writer(s3Client S3API, bucket string, logger *logging.Logger) *S3Writer {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Writer{bucket: bucket, s3Client: s3Client, logger: logger}
}

func (w *S3Writer) Enabled() bool {
	return w != nil && w.bucket != "" && w.s3Client != nil
}

var _ Publisher = (*S3Writer)(nil)

func (w *S3Writer) Publish(ctx context.Context, snap Snapshot) error {
	if !w.Enabled() {
		return nil
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("handoff: marshal snapshot: %w", err)
	}

	completed := snap.CompletedAt
	if completed.IsZero() {
		completed = time.Now().UTC()
	}

	key := fmt.Sprintf("handoffs/v1/by-date/%d/%02d/%02d/%s.json",
		completed.Year(), completed.Month(), completed.Day(), snap.SessionID)

	_, err = w.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("handoff: s3 put %s: %w", key, err)
	}

	w.logger.Info("archived handoff snapshot",
		"session_id", snap.SessionID,
		"s3_key", key,
	)
	return nil
}
