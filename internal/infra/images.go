package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ImageStore presigns GET requests for player images kept in an S3-compatible bucket.
type ImageStore struct {
	presigner *s3.PresignClient
	bucket    string
	ttl       time.Duration
	now       func() time.Time
}

// NewImageStore builds a presigning client from the IMAGE_* settings.
// A non-empty ImageEndpoint (e.g. MinIO) switches to path-style addressing.
func NewImageStore(ctx context.Context, cfg *Config) (*ImageStore, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.ImageRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.ImageAccessKeyID,
			cfg.ImageSecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.ImageEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.ImageEndpoint)
			o.UsePathStyle = true
		}
	})

	return &ImageStore{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.ImageBucket,
		ttl:       cfg.ImageURLTTL,
		now:       time.Now,
	}, nil
}

// PresignGet returns a download URL for key and the moment it stops working.
func (s *ImageStore) PresignGet(ctx context.Context, key string) (string, time.Time, error) {
	issued := s.now()
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign get %s: %w", key, err)
	}
	return req.URL, issued.Add(s.ttl).UTC(), nil
}
