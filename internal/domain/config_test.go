package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8089, config.Server.Port)
	assert.Equal(t, "https://manga.bilibili.com", config.API.BaseURL)
	assert.Equal(t, 30*time.Second, config.API.Timeout)
	assert.Equal(t, DefaultResourceConcurrency, config.Download.ResourceConcurrency)
	assert.Equal(t, 3, config.Download.EpisodeConcurrency)
	assert.True(t, config.Download.SkipLocked)
	assert.Equal(t, 10, config.Download.PageSize)
	assert.False(t, config.Notification.Enabled)
	assert.False(t, config.Storage.S3.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
}
