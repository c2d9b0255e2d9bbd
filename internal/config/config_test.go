package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "data/uploads", cfg.Upload.Dir)
	assert.Equal(t, int64(50), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, 150, cfg.Upload.PageDPI)

	assert.Equal(t, 6, cfg.Jobs.MaxConcurrentRuns)
	assert.Equal(t, 5, cfg.Jobs.RetryBackoffSecs)
	assert.Equal(t, 300, cfg.Jobs.TimeoutSecs)
	assert.Equal(t, []string{"gemini"}, cfg.Jobs.DefaultModels)

	assert.Equal(t, "gemini-2.0-flash", cfg.Vision.Gemini.DefaultModel)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Vision.Claude.DefaultModel)
	assert.Equal(t, "gpt-4o", cfg.Vision.OpenAI.DefaultModel)
	assert.False(t, cfg.Vision.Gemini.Enabled())

	assert.False(t, cfg.S3.Enabled)
	assert.Equal(t, "orderlens-archive", cfg.S3.Bucket)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ORDERLENS_SERVER_PORT", ":9090")
	t.Setenv("ORDERLENS_JOBS_DEFAULT_MODELS", "gemini, claude")
	t.Setenv("ORDERLENS_VISION_CLAUDE_API_KEY", "sk-test")
	t.Setenv("ORDERLENS_UPLOAD_MAX_FILE_SIZE_MB", "10")
	t.Setenv("ORDERLENS_S3_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, []string{"gemini", "claude"}, cfg.Jobs.DefaultModels)
	assert.Equal(t, int64(10), cfg.Upload.MaxFileSizeMB)
	assert.True(t, cfg.S3.Enabled)

	assert.True(t, cfg.Vision.Claude.Enabled())
	providers := cfg.Vision.Providers()
	require.Len(t, providers, 1)
	assert.Contains(t, providers, "claude")
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("PORT", "7777")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Port)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList("a, b"))
	assert.Equal(t, []string{"a"}, splitList("a,,"))
	assert.Nil(t, splitList(""))
}
