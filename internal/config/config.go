// Package config loads the agendex configuration from environment-named
// YAML files with ${VAR} expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the agendex API configuration.
type Config struct {
	HTTP        HTTPConfig      `yaml:"http"`
	ChunkIndex  IndexConfig     `yaml:"chunk_index"`
	AgendaStore StoreConfig     `yaml:"agenda_store"`
	Embedding   EmbeddingConfig `yaml:"embedding"`
	Analyzer    AnalyzerConfig  `yaml:"analyzer"`
	Search      SearchConfig    `yaml:"search"`
	Logging     LoggingConfig   `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// IndexConfig holds chunk index (Redis) connection and schema settings.
type IndexConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	IndexName        string   `yaml:"index_name"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
}

// StoreConfig holds agenda store (SQLite) settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// AnalyzerConfig selects and configures the query analyzer.
type AnalyzerConfig struct {
	Mode   string `yaml:"mode"`   // rule (default) or llm
	Model  string `yaml:"model"`  // chat model for llm mode
	APIKey string `yaml:"api_key"`
}

// SearchConfig holds ranking and formatting policy knobs.
type SearchConfig struct {
	ExcludeAgendaTypes   []string `yaml:"exclude_agenda_types"`
	ExcludeTitlePatterns []string `yaml:"exclude_title_patterns"`
	SummaryBudget        int      `yaml:"summary_budget"`
	TopMinChunkCount     int      `yaml:"top_min_chunk_count"`
	ValidateHints        bool     `yaml:"validate_hints"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.ChunkIndex.IndexName == "" {
		c.ChunkIndex.IndexName = "agendex:chunks:idx"
	}
	if c.ChunkIndex.KeyPrefix == "" {
		c.ChunkIndex.KeyPrefix = "agendex:chunk:"
	}
	if c.ChunkIndex.ReadinessTimeout <= 0 {
		c.ChunkIndex.ReadinessTimeout = 10
	}
	if c.ChunkIndex.HNSWM <= 0 {
		c.ChunkIndex.HNSWM = 32
	}
	if c.ChunkIndex.HNSWEFConstruct <= 0 {
		c.ChunkIndex.HNSWEFConstruct = 400
	}
	if c.AgendaStore.Path == "" {
		c.AgendaStore.Path = "data/agendas.db"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Analyzer.Mode == "" {
		c.Analyzer.Mode = "rule"
	}
	if c.Analyzer.Model == "" {
		c.Analyzer.Model = "gpt-4o-mini"
	}
	if len(c.Search.ExcludeAgendaTypes) == 0 {
		c.Search.ExcludeAgendaTypes = []string{"procedural", "discussion", "other"}
	}
	if c.Search.SummaryBudget <= 0 {
		c.Search.SummaryBudget = 200
	}
	if c.Search.TopMinChunkCount <= 0 {
		c.Search.TopMinChunkCount = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.ChunkIndex.Addrs) == 0 {
		return fmt.Errorf("chunk_index.addrs is required")
	}
	switch c.Analyzer.Mode {
	case "rule", "llm":
		// ok
	default:
		return fmt.Errorf("analyzer.mode must be \"rule\" or \"llm\", got %q", c.Analyzer.Mode)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
