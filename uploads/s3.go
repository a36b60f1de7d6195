package uploads

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Presigner implements Presigner with the AWS SDK presign client.
type S3Presigner struct {
	client *s3.PresignClient
}

// NewS3Presigner builds a presigner from the default AWS config chain
// (Lambda execution role in production).
func NewS3Presigner(ctx context.Context) (*S3Presigner, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Presigner{client: s3.NewPresignClient(s3.NewFromConfig(cfg))}, nil
}

func (p *S3Presigner) PresignPut(ctx context.Context, bucket, key, contentType string, expiry time.Duration) (string, error) {
	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign PutObject for %s: %w", key, err)
	}
	return req.URL, nil
}
