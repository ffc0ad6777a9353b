package types

// Config represents the overall application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Provider ProviderConfig `yaml:"provider" json:"provider"`
	Media    MediaConfig    `yaml:"media" json:"media"`
	Video    VideoConfig    `yaml:"video" json:"video"`
	Live     LiveConfig     `yaml:"live" json:"live"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	ReadTimeout  int    `yaml:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" json:"write_timeout"` // seconds
}

// StorageConfig defines storage adapter settings
type StorageConfig struct {
	Adapter string            `yaml:"adapter" json:"adapter"` // "local", "s3" or "redis"
	Local   LocalStorageOpts  `yaml:"local" json:"local"`
	S3      S3StorageOpts     `yaml:"s3" json:"s3"`
	Redis   RedisStorageOpts  `yaml:"redis" json:"redis"`
	Options map[string]string `yaml:"options" json:"options"`
}

// LocalStorageOpts configures the local filesystem adapter
type LocalStorageOpts struct {
	BasePath string `yaml:"base_path" json:"base_path"`
}

// S3StorageOpts configures the S3-compatible adapter
type S3StorageOpts struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	Region          string `yaml:"region" json:"region"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl" json:"use_ssl"`
}

// RedisStorageOpts configures the Redis key/value adapter
type RedisStorageOpts struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// ProviderConfig configures the generative model backend
type ProviderConfig struct {
	Name      string      `yaml:"name" json:"name"` // "gemini" or "stub"
	Endpoint  string      `yaml:"endpoint" json:"endpoint"`
	APIKeyEnv string      `yaml:"api_key_env" json:"api_key_env"` // read on every call, never cached
	Timeout   int         `yaml:"timeout" json:"timeout"`         // seconds, per request
	Models    ModelConfig `yaml:"models" json:"models"`
}

// ModelConfig names the model used for each capability
type ModelConfig struct {
	Content      string `yaml:"content" json:"content"`
	Text         string `yaml:"text" json:"text"` // refinement and translation
	CoverImage   string `yaml:"cover_image" json:"cover_image"`
	ChapterImage string `yaml:"chapter_image" json:"chapter_image"`
	ProImage     string `yaml:"pro_image" json:"pro_image"`
	EditImage    string `yaml:"edit_image" json:"edit_image"`
	Analyze      string `yaml:"analyze" json:"analyze"`
	Speech       string `yaml:"speech" json:"speech"`
	Video        string `yaml:"video" json:"video"`
	VideoExtend  string `yaml:"video_extend" json:"video_extend"`
	Live         string `yaml:"live" json:"live"`
}

// MediaConfig holds image and speech generation settings
type MediaConfig struct {
	ChapterRetries        int    `yaml:"chapter_retries" json:"chapter_retries"`
	ChapterRetryBackoffMs int    `yaml:"chapter_retry_backoff_ms" json:"chapter_retry_backoff_ms"`
	DefaultVoice          string `yaml:"default_voice" json:"default_voice"`
	ThinkingBudget        int    `yaml:"thinking_budget" json:"thinking_budget"`
}

// VideoConfig holds long-running video job settings
type VideoConfig struct {
	PollIntervalMs       int    `yaml:"poll_interval_ms" json:"poll_interval_ms"`
	ExtendPollIntervalMs int    `yaml:"extend_poll_interval_ms" json:"extend_poll_interval_ms"`
	MaxWaitSeconds       int    `yaml:"max_wait_seconds" json:"max_wait_seconds"` // 0 waits until the backend finishes
	Resolution           string `yaml:"resolution" json:"resolution"`
}

// LiveConfig holds live audio session settings
type LiveConfig struct {
	Voice            string `yaml:"voice" json:"voice"`
	InputSampleRate  int    `yaml:"input_sample_rate" json:"input_sample_rate"`
	OutputSampleRate int    `yaml:"output_sample_rate" json:"output_sample_rate"`
	SendQueueSize    int    `yaml:"send_queue_size" json:"send_queue_size"`
}

// LoggingConfig configures zerolog output
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // "json" or "console"
}
