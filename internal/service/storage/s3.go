package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/config"
)

// ImageStore persists merchant product catalog images in S3 and hands back a
// public URL for the catalog entry.
type ImageStore struct {
	client        *s3.Client
	bucket        string
	region        string
	publicBaseURL string
}

func NewImageStore(client *s3.Client, cfg *config.S3Config) *ImageStore {
	return &ImageStore{
		client:        client,
		bucket:        cfg.BucketName,
		region:        cfg.Region,
		publicBaseURL: cfg.PublicBaseURL,
	}
}

// UploadProductImage stores one image under the merchant's prefix and returns
// its URL. The key embeds a fresh UUID so re-uploads never clobber an image
// still referenced by an older catalog value.
func (s *ImageStore) UploadProductImage(ctx context.Context, merchantID string, body io.Reader, contentType string) (string, error) {
	key := fmt.Sprintf("merchants/%s/catalog/%s%s", merchantID, uuid.NewString(), extensionFor(contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload product image: %w", err)
	}

	return s.objectURL(key), nil
}

func (s *ImageStore) objectURL(key string) string {
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.publicBaseURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
