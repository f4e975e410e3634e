package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent quips configuration stored as
// config.toml. The TOML layout uses sections for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Server     ServerConfig     `toml:"server"`
	Inference  InferenceConfig  `toml:"inference"`
	Generation GenerationConfig `toml:"generation"`
	Storage    StorageConfig    `toml:"storage"`
	Remote     RemoteConfig     `toml:"remote"`
	Corpus     CorpusConfig     `toml:"corpus"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// InferenceConfig holds deployment registry and model settings.
type InferenceConfig struct {
	RegistryURL   string `toml:"registry_url,omitempty"`
	RegistryToken string `toml:"registry_token,omitempty"`
	Model         string `toml:"model,omitempty"`

	// ChatTimeoutSeconds bounds each inference call. Generous by default;
	// a cold model can take a while to answer its first request.
	ChatTimeoutSeconds uint `toml:"chat_timeout_seconds,omitempty"`
}

// GenerationConfig holds pipeline tuning knobs.
type GenerationConfig struct {
	MaxAttempts    int     `toml:"max_attempts,omitempty"`
	DedupThreshold float64 `toml:"dedup_threshold,omitempty"`
	RecentWindow   int     `toml:"recent_window,omitempty"`
	MaxTokens      int     `toml:"max_tokens,omitempty"`
	MinLength      int     `toml:"min_length,omitempty"`
}

// StorageConfig holds local record store settings.
type StorageConfig struct {
	RecordsDir string `toml:"records_dir,omitempty"`
}

// RemoteConfig holds durable store settings. When Repo is empty, the
// remote store is disabled and records stay local-only.
type RemoteConfig struct {
	Repo  string `toml:"repo,omitempty"`
	Dir   string `toml:"dir,omitempty"`
	Token string `toml:"token,omitempty"`
}

// CorpusConfig holds paths to the factoid and example corpora.
type CorpusConfig struct {
	FactoidsPath string `toml:"factoids_path,omitempty"`
	ExamplesPath string `toml:"examples_path,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"inference.registry_url": {
		get: func(c *Config) string { return c.Inference.RegistryURL },
		set: func(c *Config, v string) error { c.Inference.RegistryURL = v; return nil },
	},
	"inference.registry_token": {
		get: func(c *Config) string { return c.Inference.RegistryToken },
		set: func(c *Config, v string) error { c.Inference.RegistryToken = v; return nil },
	},
	"inference.model": {
		get: func(c *Config) string { return c.Inference.Model },
		set: func(c *Config, v string) error { c.Inference.Model = v; return nil },
	},
	"inference.chat_timeout_seconds": {
		get: func(c *Config) string {
			if c.Inference.ChatTimeoutSeconds == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Inference.ChatTimeoutSeconds), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for inference.chat_timeout_seconds: %w", err)
			}
			c.Inference.ChatTimeoutSeconds = uint(n)
			return nil
		},
	},
	"generation.max_attempts": {
		get: func(c *Config) string {
			if c.Generation.MaxAttempts == 0 {
				return ""
			}
			return strconv.Itoa(c.Generation.MaxAttempts)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for generation.max_attempts: %w", err)
			}
			c.Generation.MaxAttempts = n
			return nil
		},
	},
	"generation.dedup_threshold": {
		get: func(c *Config) string {
			if c.Generation.DedupThreshold == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Generation.DedupThreshold, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for generation.dedup_threshold: %w", err)
			}
			c.Generation.DedupThreshold = f
			return nil
		},
	},
	"generation.recent_window": {
		get: func(c *Config) string {
			if c.Generation.RecentWindow == 0 {
				return ""
			}
			return strconv.Itoa(c.Generation.RecentWindow)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for generation.recent_window: %w", err)
			}
			c.Generation.RecentWindow = n
			return nil
		},
	},
	"generation.max_tokens": {
		get: func(c *Config) string {
			if c.Generation.MaxTokens == 0 {
				return ""
			}
			return strconv.Itoa(c.Generation.MaxTokens)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for generation.max_tokens: %w", err)
			}
			c.Generation.MaxTokens = n
			return nil
		},
	},
	"generation.min_length": {
		get: func(c *Config) string {
			if c.Generation.MinLength == 0 {
				return ""
			}
			return strconv.Itoa(c.Generation.MinLength)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for generation.min_length: %w", err)
			}
			c.Generation.MinLength = n
			return nil
		},
	},
	"storage.records_dir": {
		get: func(c *Config) string { return c.Storage.RecordsDir },
		set: func(c *Config, v string) error { c.Storage.RecordsDir = v; return nil },
	},
	"remote.repo": {
		get: func(c *Config) string { return c.Remote.Repo },
		set: func(c *Config, v string) error { c.Remote.Repo = v; return nil },
	},
	"remote.dir": {
		get: func(c *Config) string { return c.Remote.Dir },
		set: func(c *Config, v string) error { c.Remote.Dir = v; return nil },
	},
	"remote.token": {
		get: func(c *Config) string { return c.Remote.Token },
		set: func(c *Config, v string) error { c.Remote.Token = v; return nil },
	},
	"corpus.factoids_path": {
		get: func(c *Config) string { return c.Corpus.FactoidsPath },
		set: func(c *Config, v string) error { c.Corpus.FactoidsPath = v; return nil },
	},
	"corpus.examples_path": {
		get: func(c *Config) string { return c.Corpus.ExamplesPath },
		set: func(c *Config, v string) error { c.Corpus.ExamplesPath = v; return nil },
	},
}
