package config

const (
	defaultListen = ":8080"

	defaultRegistryURL = "http://localhost:9090"
	defaultModel       = "Qwen/Qwen3-4B"
	defaultChatTimeout = 120

	defaultMaxAttempts    = 3
	defaultDedupThreshold = 0.6
	defaultRecentWindow   = 50
	defaultMaxTokens      = 150
	defaultMinLength      = 20

	defaultRecordsDir = "records"
	defaultRemoteDir  = "records"

	defaultFactoidsPath = "factoids.md"
	defaultExamplesPath = "examples.md"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen: defaultListen,
		},
		Inference: InferenceConfig{
			RegistryURL:        defaultRegistryURL,
			Model:              defaultModel,
			ChatTimeoutSeconds: defaultChatTimeout,
		},
		Generation: GenerationConfig{
			MaxAttempts:    defaultMaxAttempts,
			DedupThreshold: defaultDedupThreshold,
			RecentWindow:   defaultRecentWindow,
			MaxTokens:      defaultMaxTokens,
			MinLength:      defaultMinLength,
		},
		Storage: StorageConfig{
			RecordsDir: defaultRecordsDir,
		},
		Remote: RemoteConfig{
			Dir: defaultRemoteDir,
		},
		Corpus: CorpusConfig{
			FactoidsPath: defaultFactoidsPath,
			ExamplesPath: defaultExamplesPath,
		},
	}
}
