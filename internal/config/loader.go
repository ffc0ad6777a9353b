package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/unalkalkan/OneClickStudio/pkg/types"
	"gopkg.in/yaml.v3"
)

// Load reads and parses the configuration file
// It also supports environment variable overrides with OC_ prefix
func Load(configPath string) (*types.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so a partial file still yields a runnable config
	cfg := GetDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid and fills missing defaults
func Validate(cfg *types.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	switch cfg.Storage.Adapter {
	case "local":
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("local storage base_path is required")
		}
		if !filepath.IsAbs(cfg.Storage.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", cfg.Storage.Local.BasePath)
		}
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	case "redis":
		if cfg.Storage.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required")
		}
	default:
		return fmt.Errorf("invalid storage adapter: %s (must be 'local', 's3' or 'redis')", cfg.Storage.Adapter)
	}

	switch cfg.Provider.Name {
	case "gemini", "stub":
	default:
		return fmt.Errorf("invalid provider: %s (must be 'gemini' or 'stub')", cfg.Provider.Name)
	}
	if cfg.Provider.APIKeyEnv == "" {
		cfg.Provider.APIKeyEnv = "API_KEY"
	}
	if cfg.Provider.Timeout <= 0 {
		cfg.Provider.Timeout = 300
	}
	fillModelDefaults(&cfg.Provider.Models)

	if cfg.Media.ChapterRetries < 0 {
		return fmt.Errorf("media chapter_retries must not be negative: %d", cfg.Media.ChapterRetries)
	}
	if cfg.Media.ChapterRetryBackoffMs <= 0 {
		cfg.Media.ChapterRetryBackoffMs = 2000
	}
	if cfg.Media.DefaultVoice == "" {
		cfg.Media.DefaultVoice = "Kore"
	}
	if cfg.Media.ThinkingBudget <= 0 {
		cfg.Media.ThinkingBudget = 32768
	}

	if cfg.Video.PollIntervalMs <= 0 {
		cfg.Video.PollIntervalMs = 8000
	}
	if cfg.Video.ExtendPollIntervalMs <= 0 {
		cfg.Video.ExtendPollIntervalMs = 10000
	}
	if cfg.Video.MaxWaitSeconds < 0 {
		return fmt.Errorf("video max_wait_seconds must not be negative: %d", cfg.Video.MaxWaitSeconds)
	}
	if cfg.Video.Resolution == "" {
		cfg.Video.Resolution = "720p"
	}

	if cfg.Live.Voice == "" {
		cfg.Live.Voice = "Zephyr"
	}
	if cfg.Live.InputSampleRate <= 0 {
		cfg.Live.InputSampleRate = 16000
	}
	if cfg.Live.OutputSampleRate <= 0 {
		cfg.Live.OutputSampleRate = 24000
	}
	if cfg.Live.SendQueueSize <= 0 {
		cfg.Live.SendQueueSize = 64
	}

	switch cfg.Logging.Format {
	case "":
		cfg.Logging.Format = "json"
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %s (must be 'json' or 'console')", cfg.Logging.Format)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return nil
}

func fillModelDefaults(m *types.ModelConfig) {
	set := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	set(&m.Content, "gemini-3-pro-preview")
	set(&m.Text, "gemini-3-flash-preview")
	set(&m.CoverImage, "gemini-3-pro-image-preview")
	set(&m.ChapterImage, "gemini-2.5-flash-image")
	set(&m.ProImage, "gemini-3-pro-image-preview")
	set(&m.EditImage, "gemini-2.5-flash-image")
	set(&m.Analyze, "gemini-3-pro-preview")
	set(&m.Speech, "gemini-2.5-flash-preview-tts")
	set(&m.Video, "veo-3.1-fast-generate-preview")
	set(&m.VideoExtend, "veo-3.1-generate-preview")
	set(&m.Live, "gemini-2.5-flash-native-audio-preview-12-2025")
}

// applyEnvOverrides applies environment variable overrides
// Environment variables should be prefixed with OC_ (OneClick)
func applyEnvOverrides(cfg *types.Config) {
	if val := os.Getenv("OC_SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("OC_SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &cfg.Server.Port)
	}

	if val := os.Getenv("OC_STORAGE_ADAPTER"); val != "" {
		cfg.Storage.Adapter = val
	}
	if val := os.Getenv("OC_STORAGE_LOCAL_BASE_PATH"); val != "" {
		cfg.Storage.Local.BasePath = val
	}
	if val := os.Getenv("OC_STORAGE_S3_BUCKET"); val != "" {
		cfg.Storage.S3.Bucket = val
	}
	if val := os.Getenv("OC_STORAGE_S3_REGION"); val != "" {
		cfg.Storage.S3.Region = val
	}
	if val := os.Getenv("OC_STORAGE_S3_ENDPOINT"); val != "" {
		cfg.Storage.S3.Endpoint = val
	}
	if val := os.Getenv("OC_STORAGE_S3_ACCESS_KEY_ID"); val != "" {
		cfg.Storage.S3.AccessKeyID = val
	}
	if val := os.Getenv("OC_STORAGE_S3_SECRET_ACCESS_KEY"); val != "" {
		cfg.Storage.S3.SecretAccessKey = val
	}
	if val := os.Getenv("OC_STORAGE_REDIS_ADDR"); val != "" {
		cfg.Storage.Redis.Addr = val
	}
	if val := os.Getenv("OC_STORAGE_REDIS_PASSWORD"); val != "" {
		cfg.Storage.Redis.Password = val
	}

	if val := os.Getenv("OC_PROVIDER_NAME"); val != "" {
		cfg.Provider.Name = val
	}
	if val := os.Getenv("OC_PROVIDER_ENDPOINT"); val != "" {
		cfg.Provider.Endpoint = val
	}
	if val := os.Getenv("OC_PROVIDER_API_KEY_ENV"); val != "" {
		cfg.Provider.APIKeyEnv = val
	}

	if val := os.Getenv("OC_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("OC_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
}

// GetDefault returns a default configuration
func GetDefault() *types.Config {
	cfg := &types.Config{
		Server: types.ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15,
			WriteTimeout: 600, // video and content generation hold the request open
		},
		Storage: types.StorageConfig{
			Adapter: "local",
			Local: types.LocalStorageOpts{
				BasePath: "/var/lib/oneclick/storage",
			},
			Redis: types.RedisStorageOpts{
				KeyPrefix: "oneclick:",
			},
		},
		Provider: types.ProviderConfig{
			Name:      "gemini",
			APIKeyEnv: "API_KEY",
			Timeout:   300,
		},
		Media: types.MediaConfig{
			ChapterRetries:        2,
			ChapterRetryBackoffMs: 2000,
			DefaultVoice:          "Kore",
			ThinkingBudget:        32768,
		},
		Video: types.VideoConfig{
			PollIntervalMs:       8000,
			ExtendPollIntervalMs: 10000,
			Resolution:           "720p",
		},
		Live: types.LiveConfig{
			Voice:            "Zephyr",
			InputSampleRate:  16000,
			OutputSampleRate: 24000,
			SendQueueSize:    64,
		},
		Logging: types.LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
	fillModelDefaults(&cfg.Provider.Models)
	return cfg
}
