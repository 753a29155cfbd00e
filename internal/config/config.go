package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"
	_ "time/tzdata" // container images often ship without zoneinfo

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/vecnote/internal/domain"
)

// Database drivers.
const (
	DriverRedis = "redis"
	DriverBolt  = "bolt"
)

// Config holds the vecnote configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	AI         AIConfig         `yaml:"ai"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Search     SearchConfig     `yaml:"search"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Auth       AuthConfig       `yaml:"auth"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
	// Timezone is the IANA zone used for day filters and the timeline.
	Timezone string `yaml:"timezone"`
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

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, bolt (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Path             string   `yaml:"path"` // bolt file
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix         string `yaml:"key_prefix"`
	EmbeddingCacheTTL int    `yaml:"embedding_cache_ttl_hours"` // 0 = forever
}

// AIConfig holds the provider settings. With Enabled false every AI feature
// falls back to heuristics and no provider is contacted.
type AIConfig struct {
	Enabled    bool                      `yaml:"enabled"`
	Providers  map[string]ProviderConfig `yaml:"providers"`
	Vectorizer VectorizerConfig          `yaml:"vectorizer"`
	Completion CompletionConfig          `yaml:"completion"`
	Budget     BudgetConfig              `yaml:"budget"`
}

// ProviderConfig holds the endpoint of an OpenAI-compatible provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// VectorizerConfig holds embedding model settings.
type VectorizerConfig struct {
	Provider            string `yaml:"provider"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// CompletionConfig holds chat model settings.
type CompletionConfig struct {
	Provider           string  `yaml:"provider"`
	Model              string  `yaml:"model"`
	Temperature        float32 `yaml:"temperature"`
	MaxTokens          int     `yaml:"max_tokens"`
	TimeoutSec         int     `yaml:"timeout_sec"`
	RateLimitPerMinute int     `yaml:"rate_limit_per_minute"` // 0 = unlimited
	RateBurst          int     `yaml:"rate_burst"`
	RateMaxWaitMs      int     `yaml:"rate_max_wait_ms"`
}

// BudgetConfig holds token budget settings shared by embeddings and completions.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// AnalysisConfig holds metadata derivation settings.
type AnalysisConfig struct {
	ShortTitleMaxLen int      `yaml:"short_title_max_len"`
	Categories       []string `yaml:"categories"`
}

// SearchConfig holds ranking and pagination settings.
type SearchConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	RelatedKeywordLimit int     `yaml:"related_keyword_limit"`
	RelatedLimit        int     `yaml:"related_limit"`
	DefaultPageSize     int     `yaml:"default_page_size"`
	MaxPageSize         int     `yaml:"max_page_size"`
}

// ClusteringConfig holds taxonomy clustering settings.
type ClusteringConfig struct {
	Threshold float64 `yaml:"threshold"`
	Strategy  string  `yaml:"strategy"` // leader (default) | centroid
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

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
		// Completions can take a while.
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = domain.DefaultKeyPrefix
	}
	if c.AI.Completion.TimeoutSec <= 0 {
		c.AI.Completion.TimeoutSec = 30
	}
	if c.AI.Completion.Provider == "" {
		c.AI.Completion.Provider = c.AI.Vectorizer.Provider
	}

	def := domain.DefaultNoteConfig()
	if c.Analysis.ShortTitleMaxLen <= 0 {
		c.Analysis.ShortTitleMaxLen = def.ShortTitleMaxLen
	}
	if len(c.Analysis.Categories) == 0 {
		c.Analysis.Categories = def.Categories
	}
	if c.Search.SimilarityThreshold <= 0 {
		c.Search.SimilarityThreshold = def.SimilarityThreshold
	}
	if c.Search.RelatedKeywordLimit <= 0 {
		c.Search.RelatedKeywordLimit = def.RelatedKeywordLimit
	}
	if c.Search.RelatedLimit <= 0 {
		c.Search.RelatedLimit = def.RelatedLimit
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if c.Clustering.Threshold <= 0 {
		c.Clustering.Threshold = 0.75
	}
	if c.Clustering.Strategy == "" {
		c.Clustering.Strategy = "leader"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return errors.New("database.addrs is required for the redis driver")
		}
	case DriverBolt:
		if c.Database.Path == "" {
			return errors.New("database.path is required for the bolt driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverRedis, DriverBolt, c.Database.Driver)
	}
	if c.Search.SimilarityThreshold > 1 {
		return fmt.Errorf("search.similarity_threshold must be within (0, 1], got %g", c.Search.SimilarityThreshold)
	}
	if c.Clustering.Threshold > 1 {
		return fmt.Errorf("clustering.threshold must be within (0, 1], got %g", c.Clustering.Threshold)
	}
	switch c.Clustering.Strategy {
	case "leader", "centroid":
	default:
		return fmt.Errorf("clustering.strategy must be \"leader\" or \"centroid\", got %q", c.Clustering.Strategy)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.AI.Enabled {
		if err := c.AI.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (a *AIConfig) validate() error {
	switch a.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("ai.budget.action must be \"warn\" or \"reject\", got %q", a.Budget.Action)
	}
	if a.Vectorizer.Model == "" {
		return errors.New("ai.vectorizer.model is required when ai is enabled")
	}
	if _, ok := a.Providers[a.Vectorizer.Provider]; !ok {
		return fmt.Errorf("ai.vectorizer.provider %q is not defined in ai.providers", a.Vectorizer.Provider)
	}
	if a.Completion.Model == "" {
		return errors.New("ai.completion.model is required when ai is enabled")
	}
	if _, ok := a.Providers[a.Completion.Provider]; !ok {
		return fmt.Errorf("ai.completion.provider %q is not defined in ai.providers", a.Completion.Provider)
	}
	return nil
}

// NoteConfig returns the analysis and ranking knobs for the note services.
func (c *Config) NoteConfig() domain.NoteConfig {
	return domain.NoteConfig{
		ShortTitleMaxLen:    c.Analysis.ShortTitleMaxLen,
		Categories:          c.Analysis.Categories,
		SimilarityThreshold: c.Search.SimilarityThreshold,
		RelatedKeywordLimit: c.Search.RelatedKeywordLimit,
		RelatedLimit:        c.Search.RelatedLimit,
		DocumentInstruction: c.AI.Vectorizer.DocumentInstruction,
		QueryInstruction:    c.AI.Vectorizer.QueryInstruction,
	}
}

// Location returns the configured time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests and `go run` from a subdirectory.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

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
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
