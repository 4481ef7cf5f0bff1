package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
)

// Load reads and parses the configuration from a JSON file, decoding the
// obfuscated password and filling in defaults.
func Load(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json: %w", err)
	}

	var cfg Config
	if err := mapstructure.Decode(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.PasswordEncoded && cfg.FilespacePassword != "" {
		decoded, err := base64.StdEncoding.DecodeString(cfg.FilespacePassword)
		if err != nil {
			return nil, fmt.Errorf("failed to decode filespace password: %w", err)
		}
		cfg.FilespacePassword = string(decoded)
		cfg.PasswordEncoded = false
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to a JSON file, base64 encoding the
// password first. The file is owner-only: it still holds credentials,
// just not grep-ably.
func Save(cfg *Config, path string) error {
	onDisk := *cfg
	if onDisk.FilespacePassword != "" {
		onDisk.FilespacePassword = base64.StdEncoding.EncodeToString([]byte(onDisk.FilespacePassword))
		onDisk.PasswordEncoded = true
	}

	data, err := json.MarshalIndent(&onDisk, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultPath returns the per-user location of the deployment config.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, "ll-win-client", "config.json"), nil
}
