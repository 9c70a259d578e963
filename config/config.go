package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"kbase/internal/domain"
)

// Scoring constants. These mirror the tuning the system was calibrated
// with; override them through the config file, not by editing call sites.
const (
	// DefaultOverfetchFactor is how many times top-k candidates the
	// retriever pulls from the index before lexical re-ranking.
	DefaultOverfetchFactor = 3

	// Fused score weights: similarity vs. lexical keyword match.
	DefaultSimilarityWeight = 0.7
	DefaultLexicalWeight    = 0.3

	// Confidence blend weights.
	DefaultBestWeight        = 0.5
	DefaultAvgWeight         = 0.3
	DefaultConsistencyWeight = 0.1
	DefaultKeywordWeight     = 0.1
)

// Config holds all configuration for the knowledge base engine.
type Config struct {
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Confidence ConfidenceConfig `yaml:"confidence"`
	Keywords   KeywordsConfig   `yaml:"keywords"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ChunkingConfig controls the document window chunker.
type ChunkingConfig struct {
	WindowSize int `yaml:"window_size"` // characters per chunk
	Overlap    int `yaml:"overlap"`     // characters shared with the previous chunk
}

// RetrieveConfig controls the hybrid retriever.
type RetrieveConfig struct {
	TopK             int     `yaml:"top_k"`
	MaxTopK          int     `yaml:"max_top_k"`
	OverfetchFactor  int     `yaml:"overfetch_factor"`
	SimilarityWeight float64 `yaml:"similarity_weight"`
	LexicalWeight    float64 `yaml:"lexical_weight"`
}

// ConfidenceConfig holds the confidence blend weights.
type ConfidenceConfig struct {
	BestWeight        float64 `yaml:"best_weight"`
	AvgWeight         float64 `yaml:"avg_weight"`
	ConsistencyWeight float64 `yaml:"consistency_weight"`
	KeywordWeight     float64 `yaml:"keyword_weight"`
}

// KeywordsConfig controls keyword extraction.
type KeywordsConfig struct {
	MinTermLength int `yaml:"min_term_length"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"`    // "openai", "local", "mock"
	Model     string        `yaml:"model"`       // e.g. "text-embedding-3-small"
	BaseURL   string        `yaml:"base_url"`    // override for OpenAI-compatible endpoints
	APIKeyEnv string        `yaml:"api_key_env"` // environment variable holding the API key
	Dimension int           `yaml:"dimension"`
	BatchSize int           `yaml:"batch_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

// GenerationConfig holds generation provider configuration.
type GenerationConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// IngestConfig controls directory ingestion.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			WindowSize: 1000,
			Overlap:    200,
		},
		Retrieve: RetrieveConfig{
			TopK:             5,
			MaxTopK:          20,
			OverfetchFactor:  DefaultOverfetchFactor,
			SimilarityWeight: DefaultSimilarityWeight,
			LexicalWeight:    DefaultLexicalWeight,
		},
		Confidence: ConfidenceConfig{
			BestWeight:        DefaultBestWeight,
			AvgWeight:         DefaultAvgWeight,
			ConsistencyWeight: DefaultConsistencyWeight,
			KeywordWeight:     DefaultKeywordWeight,
		},
		Keywords: KeywordsConfig{
			MinTermLength: 3,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
			Timeout:   60 * time.Second,
		},
		Generation: GenerationConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.7,
			MaxTokens:   1000,
			Timeout:     120 * time.Second,
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.txt", "**/*.md"},
			Excludes: []string{"**/.kbase/**", "**/node_modules/**", "**/.git/**"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the parameters the caller controls. Violations are caller
// bugs and are reported as domain.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	if c.Chunking.WindowSize <= 0 || c.Chunking.Overlap <= 0 {
		return fmt.Errorf("%w: window_size and overlap must be positive", domain.ErrInvalidConfiguration)
	}
	if c.Chunking.Overlap >= c.Chunking.WindowSize {
		return fmt.Errorf("%w: overlap (%d) must be less than window_size (%d)",
			domain.ErrInvalidConfiguration, c.Chunking.Overlap, c.Chunking.WindowSize)
	}
	if c.Retrieve.TopK < 1 {
		return fmt.Errorf("%w: top_k must be at least 1", domain.ErrInvalidConfiguration)
	}
	if c.Retrieve.TopK > c.Retrieve.MaxTopK {
		return fmt.Errorf("%w: top_k (%d) exceeds max_top_k (%d)",
			domain.ErrInvalidConfiguration, c.Retrieve.TopK, c.Retrieve.MaxTopK)
	}
	if c.Retrieve.OverfetchFactor < 1 {
		return fmt.Errorf("%w: overfetch_factor must be at least 1", domain.ErrInvalidConfiguration)
	}
	if c.Keywords.MinTermLength < 1 {
		return fmt.Errorf("%w: min_term_length must be at least 1", domain.ErrInvalidConfiguration)
	}
	return nil
}

// Load loads configuration from a YAML file, overlaying the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for kbase.yaml,
// then .kbase/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "kbase.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".kbase", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the persisted vector index.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".kbase", "index.db")
}

// EnsureDataDir ensures the .kbase directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".kbase"), 0755)
}
