package infrastructure

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/yourusername/manga-dl-go/internal/domain"
	"go.uber.org/zap"
)

// S3ArchiveUploader copies finished archives to an S3-compatible bucket
type S3ArchiveUploader struct {
	client *minio.Client
	config *domain.S3Config
	logger *zap.Logger
}

// NewS3ArchiveUploader creates an uploader for the configured bucket
func NewS3ArchiveUploader(config *domain.S3Config, logger *zap.Logger) (*S3ArchiveUploader, error) {
	if config.Endpoint == "" || config.Bucket == "" {
		return nil, fmt.Errorf("s3 endpoint and bucket must be configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	return &S3ArchiveUploader{client: client, config: config, logger: logger}, nil
}

// Upload stores the archive under <prefix>/<manga title>/<file name>
func (u *S3ArchiveUploader) Upload(ctx context.Context, mangaTitle, archivePath string) error {
	key := ObjectKey(u.config.Prefix, mangaTitle, archivePath)

	info, err := u.client.FPutObject(ctx, u.config.Bucket, key, archivePath, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	u.logger.Info("Archive uploaded",
		zap.String("bucket", u.config.Bucket),
		zap.String("key", key),
		zap.Int64("size", info.Size))
	return nil
}

// ObjectKey builds the object key for an archive
func ObjectKey(prefix, mangaTitle, archivePath string) string {
	parts := []string{}
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, domain.SanitizeFileName(mangaTitle), filepath.Base(archivePath))
	return path.Join(parts...)
}
