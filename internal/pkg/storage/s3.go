package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/picflux/picflux/internal/pkg/env"
)

// Client stores generated images in an S3-compatible bucket so the editor
// can hand out stable URLs instead of multi-megabyte data URLs.
type Client struct {
	s3Client      *s3.Client
	bucket        string
	publicBaseURL string
}

// Enabled reports whether S3 storage is configured.
func Enabled() bool {
	return env.GetEnv("S3_ENABLED", "false") == "true"
}

// NewClientFromEnv creates an S3 client from environment configuration.
func NewClientFromEnv(ctx context.Context) (*Client, error) {
	if !Enabled() {
		return nil, fmt.Errorf("S3 storage is disabled")
	}

	bucket := env.GetEnv("S3_BUCKET", "")
	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is not configured")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(env.GetEnv("S3_REGION", "us-east-1")),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			env.GetEnv("S3_ACCESS_KEY_ID", ""),
			env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := env.GetEnv("S3_ENDPOINT_URL", "")
	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := strings.TrimRight(env.GetEnv("S3_PUBLIC_BASE_URL", ""), "/")
	if publicBase == "" && endpoint != "" {
		publicBase = strings.TrimRight(endpoint, "/") + "/" + bucket
	}

	return &Client{
		s3Client:      s3Client,
		bucket:        bucket,
		publicBaseURL: publicBase,
	}, nil
}

// UploadDataURL decodes a base64 image data URL, stores it under a random
// key and returns the public URL. Non-data URLs are returned as-is.
func (c *Client) UploadDataURL(ctx context.Context, dataURL, keyPrefix string) (string, error) {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return dataURL, nil
	}
	idx := strings.Index(dataURL, ";base64,")
	if idx < 0 {
		return dataURL, nil
	}

	contentType := strings.TrimPrefix(dataURL[:idx], "data:")
	ext := extensionForContentType(contentType)
	decoded, err := base64.StdEncoding.DecodeString(dataURL[idx+len(";base64,"):])
	if err != nil {
		return "", fmt.Errorf("decode image data url: %w", err)
	}

	key := fmt.Sprintf("%s/%s%s", strings.Trim(keyPrefix, "/"), uuid.NewString(), ext)
	_, err = c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(decoded),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload image to s3: %w", err)
	}

	if c.publicBaseURL == "" {
		return key, nil
	}
	return c.publicBaseURL + "/" + key, nil
}

func extensionForContentType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
