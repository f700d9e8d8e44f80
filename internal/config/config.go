package config

// Config represents the main trackmind configuration
type Config struct {
	// Tracker connection
	Tracker TrackerConfig `json:"tracker" mapstructure:"tracker"`

	// Embedding provider
	Embedding EmbeddingConfig `json:"embedding" mapstructure:"embedding"`

	// Import defaults (overridable per project via mapping config)
	Import ImportConfig `json:"import" mapstructure:"import"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory (sqlite database, mapping preset overlays)
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Database path; defaults to <data_dir>/trackmind.db
	DBPath string `json:"db_path" mapstructure:"db_path"`

	// PresetDir holds custom mapping preset overlays; defaults to <data_dir>/presets
	PresetDir string `json:"preset_dir" mapstructure:"preset_dir"`
}

// TrackerConfig holds tracker connection settings
type TrackerConfig struct {
	BaseURL    string `json:"base_url" mapstructure:"base_url"`
	Credential string `json:"credential" mapstructure:"credential"`
	Timeout    int    `json:"timeout" mapstructure:"timeout"` // seconds
}

// EmbeddingConfig holds embedding provider settings
type EmbeddingConfig struct {
	Provider  string `json:"provider" mapstructure:"provider"` // openai, hash
	APIKey    string `json:"api_key" mapstructure:"api_key"`
	Model     string `json:"model" mapstructure:"model"`
	Dimension int    `json:"dimension" mapstructure:"dimension"`
	// Fallback enables the deterministic hash provider when the primary
	// provider is unavailable
	Fallback bool `json:"fallback" mapstructure:"fallback"`
}

// ImportConfig holds default import pacing settings
type ImportConfig struct {
	BatchSize           int `json:"batch_size" mapstructure:"batch_size"`
	DelayBetweenBatches int `json:"delay_between_batches" mapstructure:"delay_between_batches"` // ms
	MaxSyncResults      int `json:"max_sync_results" mapstructure:"max_sync_results"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Tracker: TrackerConfig{
			Timeout: 60,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			Fallback:  true,
		},
		Import: ImportConfig{
			BatchSize:           50,
			DelayBetweenBatches: 1000,
			MaxSyncResults:      100,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Redaction: true,
		},
	}
}
