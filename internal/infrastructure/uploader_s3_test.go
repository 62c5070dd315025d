package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/manga-dl-go/internal/domain"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "manga/ChainsawMan/[1]a.zip", ObjectKey("/manga/", "Chainsaw Man", "/tmp/x/[1]a.zip"))
	assert.Equal(t, "Title/[2]b.zip", ObjectKey("", "Title", "[2]b.zip"))
}

func TestNewS3ArchiveUploader_RequiresBucket(t *testing.T) {
	_, err := NewS3ArchiveUploader(&domain.S3Config{Endpoint: "localhost:9000"}, nil)
	require.Error(t, err)

	uploader, err := NewS3ArchiveUploader(&domain.S3Config{Endpoint: "localhost:9000", Bucket: "b"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, uploader)
}
