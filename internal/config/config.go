package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Stream    StreamConfig    `yaml:"stream"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
// WriteTimeout defaults to 0 because event-stream responses stay open for
// as long as the upstream keeps generating.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"0s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Supported upstream providers.
const (
	ProviderDeepSeek  = "deepseek"
	ProviderAnthropic = "anthropic"
)

// UpstreamConfig selects and configures the text-generation API.
// An empty APIKey is allowed: the service then answers every request with
// an error record instead of refusing to start.
type UpstreamConfig struct {
	Provider    string        `yaml:"provider"     env:"UPSTREAM_PROVIDER"     env-default:"deepseek"`
	BaseURL     string        `yaml:"base_url"     env:"UPSTREAM_BASE_URL"`
	ChatPath    string        `yaml:"chat_path"    env:"UPSTREAM_CHAT_PATH"    env-default:"/chat/completions"`
	APIKey      string        `yaml:"api_key"      env:"UPSTREAM_API_KEY"`
	Model       string        `yaml:"model"        env:"UPSTREAM_MODEL"`
	Timeout     time.Duration `yaml:"timeout"      env:"UPSTREAM_TIMEOUT"      env-default:"60s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"UPSTREAM_IDLE_TIMEOUT" env-default:"20s"`
	MaxTokens   int           `yaml:"max_tokens"   env:"UPSTREAM_MAX_TOKENS"   env-default:"1024"`
}

// StreamConfig holds translation stream settings.
type StreamConfig struct {
	// SnapshotInterval is the minimum gap between two snapshots of one
	// stream. Zero disables pacing.
	SnapshotInterval  time.Duration `yaml:"snapshot_interval"   env:"STREAM_SNAPSHOT_INTERVAL"   env-default:"0s"`
	MaxSentenceLength int           `yaml:"max_sentence_length" env:"STREAM_MAX_SENTENCE_LENGTH" env-default:"1000"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	TranslatePerMinute int           `yaml:"translate_per_minute" env:"RATE_LIMIT_TRANSLATE_PER_MINUTE" env-default:"30"`
	CleanupInterval    time.Duration `yaml:"cleanup_interval"     env:"RATE_LIMIT_CLEANUP_INTERVAL"     env-default:"5m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Origins returns the allowed origins as a trimmed list.
func (c CORSConfig) Origins() []string { return splitList(c.AllowedOrigins) }

// Methods returns the allowed methods as a trimmed list.
func (c CORSConfig) Methods() []string { return splitList(c.AllowedMethods) }

// Headers returns the allowed request headers as a trimmed list.
func (c CORSConfig) Headers() []string { return splitList(c.AllowedHeaders) }

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
