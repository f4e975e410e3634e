package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// from configDir (or the working directory), and binds environment
// variables with the QUIPS_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound by the command)
//  2. Environment variables (QUIPS_SERVER_LISTEN, QUIPS_REMOTE_TOKEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	} else {
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("QUIPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the resolved viper state, so
// commands see the merged flag/env/file/default view.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Server: ServerConfig{
			Listen: v.GetString("server.listen"),
		},
		Inference: InferenceConfig{
			RegistryURL:        v.GetString("inference.registry_url"),
			RegistryToken:      v.GetString("inference.registry_token"),
			Model:              v.GetString("inference.model"),
			ChatTimeoutSeconds: v.GetUint("inference.chat_timeout_seconds"),
		},
		Generation: GenerationConfig{
			MaxAttempts:    v.GetInt("generation.max_attempts"),
			DedupThreshold: v.GetFloat64("generation.dedup_threshold"),
			RecentWindow:   v.GetInt("generation.recent_window"),
			MaxTokens:      v.GetInt("generation.max_tokens"),
			MinLength:      v.GetInt("generation.min_length"),
		},
		Storage: StorageConfig{
			RecordsDir: v.GetString("storage.records_dir"),
		},
		Remote: RemoteConfig{
			Repo:  v.GetString("remote.repo"),
			Dir:   v.GetString("remote.dir"),
			Token: v.GetString("remote.token"),
		},
		Corpus: CorpusConfig{
			FactoidsPath: v.GetString("corpus.factoids_path"),
			ExamplesPath: v.GetString("corpus.examples_path"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Server
	v.SetDefault("server.listen", d.Server.Listen)

	// Inference
	v.SetDefault("inference.registry_url", d.Inference.RegistryURL)
	v.SetDefault("inference.registry_token", d.Inference.RegistryToken)
	v.SetDefault("inference.model", d.Inference.Model)
	v.SetDefault("inference.chat_timeout_seconds", d.Inference.ChatTimeoutSeconds)

	// Generation
	v.SetDefault("generation.max_attempts", d.Generation.MaxAttempts)
	v.SetDefault("generation.dedup_threshold", d.Generation.DedupThreshold)
	v.SetDefault("generation.recent_window", d.Generation.RecentWindow)
	v.SetDefault("generation.max_tokens", d.Generation.MaxTokens)
	v.SetDefault("generation.min_length", d.Generation.MinLength)

	// Storage
	v.SetDefault("storage.records_dir", d.Storage.RecordsDir)

	// Remote
	v.SetDefault("remote.repo", d.Remote.Repo)
	v.SetDefault("remote.dir", d.Remote.Dir)
	v.SetDefault("remote.token", d.Remote.Token)

	// Corpus
	v.SetDefault("corpus.factoids_path", d.Corpus.FactoidsPath)
	v.SetDefault("corpus.examples_path", d.Corpus.ExamplesPath)
}
