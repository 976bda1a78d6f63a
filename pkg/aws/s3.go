package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Presigner signs short-lived GET URLs for worksheet files.
type S3Presigner struct {
	presigner *s3.PresignClient
	bucket    string
}

// NewS3Presigner builds a presigner for bucket. Path-style addressing is used
// when a custom endpoint is configured.
func NewS3Presigner(cfg sdkaws.Config, bucket string) *S3Presigner {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if CustomEndpoint() != "" {
			o.UsePathStyle = true
		}
	})
	return &S3Presigner{presigner: s3.NewPresignClient(client), bucket: bucket}
}

// PresignGet returns a URL that downloads key until expiry elapses.
func (p *S3Presigner) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}
	req, err := p.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: sdkaws.String(p.bucket),
		Key:    sdkaws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign get object: %w", err)
	}
	return req.URL, nil
}
