package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// Configer loads and saves the config.toml file at a fixed path.
type Configer struct {
	targetPath string
}

// NewConfiger resolves the config file location. With an empty override the
// file lives in the current working directory.
func NewConfiger(override string) (*Configer, error) {
	path := override
	if path == "" {
		path = configFile
	}

	_, err := os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return &Configer{targetPath: path}, nil
}

// ValidConfigKeys returns the list of all supported configuration key names
// in a stable, logical order matching the TOML section layout.
func ValidConfigKeys() []string {
	ordered := []string{
		"server.listen",
		"inference.registry_url",
		"inference.registry_token",
		"inference.model",
		"inference.chat_timeout_seconds",
		"generation.max_attempts",
		"generation.dedup_threshold",
		"generation.recent_window",
		"generation.max_tokens",
		"generation.min_length",
		"storage.records_dir",
		"remote.repo",
		"remote.dir",
		"remote.token",
		"corpus.factoids_path",
		"corpus.examples_path",
	}

	// Sanity: only return keys that actually exist in the map, then append
	// any map keys the ordered list missed.
	result := make([]string, 0, len(ordered))
	seen := make(map[string]bool, len(ordered))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}
	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml. If the file does not
// exist, returns NewDefaultConfig() so callers always receive a
// fully-populated Config. Fields explicitly set in the file override the
// defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = defaults.Server.Listen
	}

	if cfg.Inference.RegistryURL == "" {
		cfg.Inference.RegistryURL = defaults.Inference.RegistryURL
	}
	if cfg.Inference.Model == "" {
		cfg.Inference.Model = defaults.Inference.Model
	}
	if cfg.Inference.ChatTimeoutSeconds == 0 {
		cfg.Inference.ChatTimeoutSeconds = defaults.Inference.ChatTimeoutSeconds
	}

	if cfg.Generation.MaxAttempts == 0 {
		cfg.Generation.MaxAttempts = defaults.Generation.MaxAttempts
	}
	if cfg.Generation.DedupThreshold == 0 {
		cfg.Generation.DedupThreshold = defaults.Generation.DedupThreshold
	}
	if cfg.Generation.RecentWindow == 0 {
		cfg.Generation.RecentWindow = defaults.Generation.RecentWindow
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = defaults.Generation.MaxTokens
	}
	if cfg.Generation.MinLength == 0 {
		cfg.Generation.MinLength = defaults.Generation.MinLength
	}

	if cfg.Storage.RecordsDir == "" {
		cfg.Storage.RecordsDir = defaults.Storage.RecordsDir
	}

	if cfg.Remote.Dir == "" {
		cfg.Remote.Dir = defaults.Remote.Dir
	}

	if cfg.Corpus.FactoidsPath == "" {
		cfg.Corpus.FactoidsPath = defaults.Corpus.FactoidsPath
	}
	if cfg.Corpus.ExamplesPath == "" {
		cfg.Corpus.ExamplesPath = defaults.Corpus.ExamplesPath
	}
}

// SaveConfig persists the configuration to config.toml.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
