package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultPath = "./config.yaml"

// providerKeyEnv maps each provider to the conventional variable its own
// SDKs read. It is consulted only when UPSTREAM_API_KEY is empty.
var providerKeyEnv = map[string]string{
	ProviderDeepSeek:  "DEEPSEEK_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML file path is determined by CONFIG_PATH env (fallback "./config.yaml").
// If the file does not exist and CONFIG_PATH was not set explicitly,
// configuration is loaded from ENV + defaults only.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		return LoadFrom(defaultPath, false)
	}
	return LoadFrom(path, true)
}

// LoadFrom loads the file at path. A missing file is an error only when
// required is set.
func LoadFrom(path string, required bool) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if required {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if cfg.Upstream.APIKey == "" {
		if name, ok := providerKeyEnv[cfg.Upstream.Provider]; ok {
			cfg.Upstream.APIKey = os.Getenv(name)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}
