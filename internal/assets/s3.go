// Package assets implements remote image asset storage operations against
// an S3-compatible bucket (AWS S3 or MinIO). The accounting core only
// needs deletion: when an operation record is removed, its two stored
// images become eligible for best-effort cleanup.
package assets

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds the connection settings for the asset bucket.
type Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the S3 endpoint for MinIO-compatible stores;
	// empty means AWS.
	Endpoint string
}

// S3Remover deletes objects from the configured bucket.
type S3Remover struct {
	client *s3.Client
	bucket string
}

// NewS3Remover builds a remover from static credentials, optionally
// pointed at a custom endpoint.
func NewS3Remover(ctx context.Context, cfg Config) (*S3Remover, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3Remover{client: client, bucket: cfg.Bucket}, nil
}

// Remove deletes the object stored under assetID. S3 delete is already
// idempotent, so removing an object that is gone succeeds.
func (r *S3Remover) Remove(ctx context.Context, assetID string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(assetID),
	})
	return err
}
