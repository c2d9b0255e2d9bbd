package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	Upload UploadConfig
	Jobs   JobsConfig
	Vision VisionConfig
	S3     S3Config
	Log    LogConfig
	CORS   CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// UploadConfig holds upload handling and preprocessing settings.
type UploadConfig struct {
	Dir           string `mapstructure:"dir"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PageDPI       int    `mapstructure:"page_dpi"`
}

// JobsConfig holds extraction job scheduling settings.
type JobsConfig struct {
	MaxConcurrentRuns int      `mapstructure:"max_concurrent_runs"`
	RetryBackoffSecs  int      `mapstructure:"retry_backoff_secs"`
	TimeoutSecs       int      `mapstructure:"timeout_secs"`
	DefaultModels     []string `mapstructure:"default_models"`
}

// VisionProviderConfig holds settings for a single vision model provider.
type VisionProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// Enabled reports whether the provider is configured for use.
func (p *VisionProviderConfig) Enabled() bool {
	return p.APIKey != ""
}

// VisionConfig holds the per-provider vision model settings.
type VisionConfig struct {
	Gemini VisionProviderConfig `mapstructure:"gemini"`
	Claude VisionProviderConfig `mapstructure:"claude"`
	OpenAI VisionProviderConfig `mapstructure:"openai"`
}

// Providers returns the configured provider configs keyed by provider name.
func (v *VisionConfig) Providers() map[string]*VisionProviderConfig {
	out := map[string]*VisionProviderConfig{}
	for _, p := range []*VisionProviderConfig{&v.Gemini, &v.Claude, &v.OpenAI} {
		if p.Enabled() {
			out[p.Provider] = p
		}
	}
	return out
}

// S3Config holds archival object storage settings. Archival is disabled when
// Enabled is false; the service then keeps results in memory only.
type S3Config struct {
	Enabled       bool   `mapstructure:"enabled"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the ORDERLENS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ORDERLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// Upload defaults
	v.SetDefault("upload.dir", "data/uploads")
	v.SetDefault("upload.max_file_size_mb", 50)
	v.SetDefault("upload.page_dpi", 150)

	// Jobs defaults
	v.SetDefault("jobs.max_concurrent_runs", 6)
	v.SetDefault("jobs.retry_backoff_secs", 5)
	v.SetDefault("jobs.timeout_secs", 300)
	v.SetDefault("jobs.default_models", "gemini")

	// Vision provider defaults
	v.SetDefault("vision.gemini.provider", "gemini")
	v.SetDefault("vision.gemini.api_key", "")
	v.SetDefault("vision.gemini.default_model", "gemini-2.0-flash")
	v.SetDefault("vision.gemini.timeout_secs", 120)
	v.SetDefault("vision.claude.provider", "claude")
	v.SetDefault("vision.claude.api_key", "")
	v.SetDefault("vision.claude.default_model", "claude-sonnet-4-20250514")
	v.SetDefault("vision.claude.timeout_secs", 120)
	v.SetDefault("vision.openai.provider", "openai")
	v.SetDefault("vision.openai.api_key", "")
	v.SetDefault("vision.openai.default_model", "gpt-4o")
	v.SetDefault("vision.openai.timeout_secs", 120)

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "orderlens-archive")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:3001,http://127.0.0.1:3001")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "ORDERLENS_SERVER_PORT",
		"server.read_timeout":         "ORDERLENS_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "ORDERLENS_SERVER_WRITE_TIMEOUT",
		"server.environment":          "ORDERLENS_SERVER_ENVIRONMENT",
		"upload.dir":                  "ORDERLENS_UPLOAD_DIR",
		"upload.max_file_size_mb":     "ORDERLENS_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.page_dpi":             "ORDERLENS_UPLOAD_PAGE_DPI",
		"jobs.max_concurrent_runs":    "ORDERLENS_JOBS_MAX_CONCURRENT_RUNS",
		"jobs.retry_backoff_secs":     "ORDERLENS_JOBS_RETRY_BACKOFF_SECS",
		"jobs.timeout_secs":           "ORDERLENS_JOBS_TIMEOUT_SECS",
		"jobs.default_models":         "ORDERLENS_JOBS_DEFAULT_MODELS",
		"vision.gemini.api_key":       "ORDERLENS_VISION_GEMINI_API_KEY",
		"vision.gemini.default_model": "ORDERLENS_VISION_GEMINI_DEFAULT_MODEL",
		"vision.gemini.timeout_secs":  "ORDERLENS_VISION_GEMINI_TIMEOUT_SECS",
		"vision.claude.api_key":       "ORDERLENS_VISION_CLAUDE_API_KEY",
		"vision.claude.default_model": "ORDERLENS_VISION_CLAUDE_DEFAULT_MODEL",
		"vision.claude.timeout_secs":  "ORDERLENS_VISION_CLAUDE_TIMEOUT_SECS",
		"vision.openai.api_key":       "ORDERLENS_VISION_OPENAI_API_KEY",
		"vision.openai.default_model": "ORDERLENS_VISION_OPENAI_DEFAULT_MODEL",
		"vision.openai.timeout_secs":  "ORDERLENS_VISION_OPENAI_TIMEOUT_SECS",
		"s3.enabled":                  "ORDERLENS_S3_ENABLED",
		"s3.region":                   "ORDERLENS_S3_REGION",
		"s3.bucket":                   "ORDERLENS_S3_BUCKET",
		"s3.endpoint":                 "ORDERLENS_S3_ENDPOINT",
		"s3.access_key":               "ORDERLENS_S3_ACCESS_KEY",
		"s3.secret_key":               "ORDERLENS_S3_SECRET_KEY",
		"s3.presign_expiry":           "ORDERLENS_S3_PRESIGN_EXPIRY",
		"log.level":                   "ORDERLENS_LOG_LEVEL",
		"log.format":                  "ORDERLENS_LOG_FORMAT",
		"cors.allowed_origins":        "ORDERLENS_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if ORDERLENS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("ORDERLENS_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Upload = UploadConfig{
		Dir:           v.GetString("upload.dir"),
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
		PageDPI:       v.GetInt("upload.page_dpi"),
	}
	cfg.Jobs = JobsConfig{
		MaxConcurrentRuns: v.GetInt("jobs.max_concurrent_runs"),
		RetryBackoffSecs:  v.GetInt("jobs.retry_backoff_secs"),
		TimeoutSecs:       v.GetInt("jobs.timeout_secs"),
		DefaultModels:     splitList(v.GetString("jobs.default_models")),
	}
	cfg.Vision = VisionConfig{
		Gemini: VisionProviderConfig{
			Provider:     "gemini",
			APIKey:       v.GetString("vision.gemini.api_key"),
			DefaultModel: v.GetString("vision.gemini.default_model"),
			TimeoutSecs:  v.GetInt("vision.gemini.timeout_secs"),
		},
		Claude: VisionProviderConfig{
			Provider:     "claude",
			APIKey:       v.GetString("vision.claude.api_key"),
			DefaultModel: v.GetString("vision.claude.default_model"),
			TimeoutSecs:  v.GetInt("vision.claude.timeout_secs"),
		},
		OpenAI: VisionProviderConfig{
			Provider:     "openai",
			APIKey:       v.GetString("vision.openai.api_key"),
			DefaultModel: v.GetString("vision.openai.default_model"),
			TimeoutSecs:  v.GetInt("vision.openai.timeout_secs"),
		},
	}
	cfg.S3 = S3Config{
		Enabled:       v.GetBool("s3.enabled"),
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	return cfg, nil
}

// splitList parses a comma-separated string into a trimmed slice.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
