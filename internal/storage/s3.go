package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const UploadURLTTL = 15 * time.Minute

type Config struct {
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string
}

// Presigner issues presigned PUT URLs for direct browser uploads.
type Presigner struct {
	bucket   string
	endpoint string
	region   string
	client   *s3.PresignClient
}

func NewPresigner(cfg Config) *Presigner {
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return &Presigner{
		bucket:   cfg.Bucket,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		region:   cfg.Region,
		client:   s3.NewPresignClient(s3.New(opts)),
	}
}

// PresignUpload returns a PUT URL for key valid for UploadURLTTL.
func (p *Presigner) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(UploadURLTTL))
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}
	return req.URL, nil
}

// PublicURL is where the object is readable once uploaded.
func (p *Presigner) PublicURL(key string) string {
	if p.endpoint != "" {
		return p.endpoint + "/" + p.bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key)
}
