// Package archive keeps a durable copy of approved photos in object storage.
// The chat platform's file ids are opaque and can expire with the bot token;
// the archive is the copy that survives.
package archive

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
)

type Service interface {
	Enabled() bool
	Store(ctx context.Context, referenceID, photoID int64, reader io.Reader, size int64, contentType string) (string, error)
}

type service struct {
	client *minio.Client
	bucket string
}

// NewService builds the archive. client may be nil, which disables archiving;
// callers check Enabled before downloading anything.
func NewService(client *minio.Client, bucket string) Service {
	return &service{
		client: client,
		bucket: bucket,
	}
}

func (s *service) Enabled() bool {
	return s.client != nil
}

func (s *service) Store(ctx context.Context, referenceID, photoID int64, reader io.Reader, size int64, contentType string) (string, error) {
	objectPath := fmt.Sprintf("refes/%s/%d/%d", time.Now().Format("2006/01"), referenceID, photoID)

	_, err := s.client.PutObject(ctx, s.bucket, objectPath, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive photo: %w", err)
	}

	return objectPath, nil
}
