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

// Config holds the screener configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Auth       AuthConfig       `yaml:"auth"`
	Sources    SourcesConfig    `yaml:"sources"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Budget     BudgetConfig     `yaml:"budget"`
	Vector     VectorConfig     `yaml:"vector"`
	Screening  ScreeningConfig  `yaml:"screening"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SourcesConfig holds the news source adapters and term derivation caps.
type SourcesConfig struct {
	TimeoutSec     int    `yaml:"timeout_sec"`
	TermsPerSource int    `yaml:"terms_per_source"`
	MaxTerms       int    `yaml:"max_terms"`
	MaxKeywords    int    `yaml:"max_keywords"`
	UserAgent      string `yaml:"user_agent"`

	GoogleNews FeedConfig      `yaml:"google_news"`
	Government GovConfig       `yaml:"government"`
	NewsAPI    APISourceConfig `yaml:"newsapi"`
	GNews      APISourceConfig `yaml:"gnews"`
}

// FeedConfig configures the RSS search feed.
type FeedConfig struct {
	BaseURL    string `yaml:"base_url"`
	Locale     string `yaml:"locale"`
	Country    string `yaml:"country"`
	MaxRecords int    `yaml:"max_records"`
}

// GovConfig configures the government-domain feed.
type GovConfig struct {
	FeedConfig `yaml:",inline"`
	Domains    []string `yaml:"domains"`
}

// APISourceConfig configures a keyed news API. An empty key leaves the source unconfigured.
type APISourceConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Language   string `yaml:"language"`
	MaxRecords int    `yaml:"max_records"`
}

// EnrichmentConfig holds the classifier settings. An empty key disables enrichment.
type EnrichmentConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Provider   string `yaml:"provider"`
	TimeoutSec int    `yaml:"timeout_sec"`
	BatchCap   int    `yaml:"batch_cap"`
}

// EmbeddingConfig holds embedding settings. An empty key disables retrieval.
type EmbeddingConfig struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Provider    string `yaml:"provider"`
	Dimensions  int    `yaml:"dimensions"`
	CacheTTLSec int    `yaml:"cache_ttl_sec"` // 0 = no expiry
}

// BudgetConfig holds token budget settings shared by embedding and enrichment.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Enabled reports whether any limit is set.
func (b BudgetConfig) Enabled() bool {
	return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0
}

// VectorConfig holds the vector store and retrieval settings. Empty addrs disable retrieval.
type VectorConfig struct {
	Driver           string            `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string          `yaml:"addrs"`
	Username         string            `yaml:"username"`
	Password         string            `yaml:"password"`
	ReadinessTimeout int               `yaml:"readiness_timeout_sec"`
	Algorithm        string            `yaml:"algorithm"` // HNSW (default), FLAT
	HNSWM            int               `yaml:"hnsw_m"`
	HNSWEFConstruct  int               `yaml:"hnsw_ef_construction"`
	Namespaces       []NamespaceConfig `yaml:"namespaces"`
	DefaultTopK      int               `yaml:"default_top_k"`
	ScoreThreshold   float64           `yaml:"score_threshold"`
	ChunkSize        int               `yaml:"chunk_size"`
	ChunkOverlap     int               `yaml:"chunk_overlap"`
	CaseNamespace    string            `yaml:"case_namespace"`
	CaseCategory     string            `yaml:"case_category"`
}

// NamespaceConfig is one searchable namespace with its local topK.
type NamespaceConfig struct {
	Name string `yaml:"name"`
	TopK int    `yaml:"top_k"`
}

// ScreeningConfig holds report settings.
type ScreeningConfig struct {
	MaxArticles int `yaml:"max_articles"`
}

// RetrievalEnabled reports whether both the vector store and the embedder are configured.
func (c *Config) RetrievalEnabled() bool {
	return len(c.Vector.Addrs) > 0 && c.Embedding.APIKey != ""
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
// Retrieval and source tuning defaults live with their packages.
func (c *Config) ApplyDefaults() {
	// Unset ${VAR} list entries expand to empty strings.
	c.Vector.Addrs = nonEmpty(c.Vector.Addrs)
	c.Auth.APIKeys = nonEmpty(c.Auth.APIKeys)

	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Sources.UserAgent == "" {
		c.Sources.UserAgent = "screener/1.0"
	}
	if c.Enrichment.Model == "" {
		c.Enrichment.Model = "gpt-4o-mini"
	}
	if c.Enrichment.Provider == "" {
		c.Enrichment.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Budget.Action == "" {
		c.Budget.Action = "warn"
	}
	if c.Vector.Driver == "" {
		c.Vector.Driver = "valkey"
	}
	if c.Vector.ReadinessTimeout <= 0 {
		c.Vector.ReadinessTimeout = 10
	}
	if c.Vector.HNSWM <= 0 {
		c.Vector.HNSWM = 16
	}
	if c.Vector.HNSWEFConstruct <= 0 {
		c.Vector.HNSWEFConstruct = 200
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("budget.action must be \"warn\" or \"reject\", got %q", c.Budget.Action)
	}
	switch c.Vector.Driver {
	case "", "valkey", "redis":
	default:
		return fmt.Errorf("vector.driver must be \"valkey\" or \"redis\", got %q", c.Vector.Driver)
	}
	switch c.Vector.Algorithm {
	case "", "HNSW", "FLAT":
	default:
		return fmt.Errorf("vector.algorithm must be \"HNSW\" or \"FLAT\", got %q", c.Vector.Algorithm)
	}
	if c.Vector.ScoreThreshold < 0 || c.Vector.ScoreThreshold > 1 {
		return fmt.Errorf("vector.score_threshold must be between 0 and 1, got %g", c.Vector.ScoreThreshold)
	}
	if c.Vector.ChunkSize > 0 && c.Vector.ChunkOverlap >= c.Vector.ChunkSize {
		return fmt.Errorf("vector.chunk_overlap (%d) must be smaller than vector.chunk_size (%d)",
			c.Vector.ChunkOverlap, c.Vector.ChunkSize)
	}
	seen := make(map[string]struct{}, len(c.Vector.Namespaces))
	for i, ns := range c.Vector.Namespaces {
		if ns.Name == "" {
			return fmt.Errorf("vector.namespaces[%d].name is required", i)
		}
		if _, dup := seen[ns.Name]; dup {
			return fmt.Errorf("vector.namespaces: duplicate namespace %q", ns.Name)
		}
		seen[ns.Name] = struct{}{}
	}
	if c.Vector.CaseNamespace != "" && len(seen) > 0 {
		if _, ok := seen[c.Vector.CaseNamespace]; !ok {
			return fmt.Errorf("vector.case_namespace %q is not a configured namespace", c.Vector.CaseNamespace)
		}
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

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
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
