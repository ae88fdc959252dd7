package config

import (
	"fmt"
	"slices"
	"strings"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be >= 0 (got %v)", c.Server.WriteTimeout)
	}

	if err := c.Upstream.validate(); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}

	if c.Stream.SnapshotInterval < 0 {
		return fmt.Errorf("stream.snapshot_interval must be >= 0 (got %v)", c.Stream.SnapshotInterval)
	}
	if c.Stream.MaxSentenceLength <= 0 {
		return fmt.Errorf("stream.max_sentence_length must be > 0 (got %d)", c.Stream.MaxSentenceLength)
	}

	if c.RateLimit.TranslatePerMinute < 0 {
		return fmt.Errorf("rate_limit.translate_per_minute must be >= 0 (got %d)", c.RateLimit.TranslatePerMinute)
	}
	if c.RateLimit.CleanupInterval <= 0 {
		return fmt.Errorf("rate_limit.cleanup_interval must be > 0 (got %v)", c.RateLimit.CleanupInterval)
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be one of %v (got %q)", validLogLevels, c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}

func (u *UpstreamConfig) validate() error {
	switch u.Provider {
	case ProviderDeepSeek, ProviderAnthropic:
	default:
		return fmt.Errorf("provider must be %q or %q (got %q)", ProviderDeepSeek, ProviderAnthropic, u.Provider)
	}
	if u.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0 (got %v)", u.Timeout)
	}
	if u.IdleTimeout < 0 {
		return fmt.Errorf("idle_timeout must be >= 0 (got %v)", u.IdleTimeout)
	}
	if u.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be > 0 (got %d)", u.MaxTokens)
	}
	return nil
}
