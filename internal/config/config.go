// Package config provides application configuration with multi-source
// priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./save.yaml or ~/.save/config.yaml)
//  3. Default values
//
// Error handling uses sentinel errors so callers can check specific
// failures with errors.Is().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrMissingGeminiKey indicates GEMINI_API_KEY is not set.
	ErrMissingGeminiKey = errors.New("missing GEMINI_API_KEY")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidPort indicates the HTTP port is out of range.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidTopK indicates the retrieval depth is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top_k")

	// ErrInvalidLexicalWeight indicates the fusion weight is outside [0, 1].
	ErrInvalidLexicalWeight = errors.New("invalid lexical weight")

	// ErrInvalidMaxIterations indicates the agent iteration bound is out of range.
	ErrInvalidMaxIterations = errors.New("invalid max iterations")
)

const (
	// DefaultModelName is the planning model.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultEmbedderModel is the Gemini embedder for semantic retrieval.
	DefaultEmbedderModel = "gemini-embedding-001"
)

// Config stores application configuration.
type Config struct {
	// HTTP server
	Port int    `mapstructure:"port" json:"port"`
	Host string `mapstructure:"host" json:"host"`

	// AI model configuration
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// API keys. GEMINI_API_KEY is read directly by Genkit and only
	// validated here; the others gate their tools at startup.
	USDAAPIKey   string `mapstructure:"usda_api_key" json:"-"`
	TavilyAPIKey string `mapstructure:"tavily_api_key" json:"-"`

	// Knowledge base retrieval
	CorpusDir     string  `mapstructure:"corpus_dir" json:"corpus_dir"`
	TopK          int     `mapstructure:"top_k" json:"top_k"`
	LexicalWeight float64 `mapstructure:"lexical_weight" json:"lexical_weight"`

	// Session memory
	SessionTTLMinutes int `mapstructure:"session_ttl_minutes" json:"session_ttl_minutes"`
	MaxTurns          int `mapstructure:"max_turns" json:"max_turns"`

	// Agent loop
	MaxIterations int `mapstructure:"max_iterations" json:"max_iterations"`

	// Tool dispatch
	ToolTimeoutSeconds int     `mapstructure:"tool_timeout_seconds" json:"tool_timeout_seconds"`
	ToolMaxRetries     int     `mapstructure:"tool_max_retries" json:"tool_max_retries"`
	ToolRateLimit      float64 `mapstructure:"tool_rate_limit" json:"tool_rate_limit"`
}

// Load loads configuration.
// Priority: environment variables > config file > defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("save")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".save"))
	}

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Fail fast on bad values.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8000)
	v.SetDefault("host", "0.0.0.0")

	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)

	v.SetDefault("corpus_dir", "rag_documents")
	v.SetDefault("top_k", 5)
	v.SetDefault("lexical_weight", 0.5)

	v.SetDefault("session_ttl_minutes", 30)
	v.SetDefault("max_turns", 15)

	v.SetDefault("max_iterations", 6)

	v.SetDefault("tool_timeout_seconds", 8)
	v.SetDefault("tool_max_retries", 2)
	v.SetDefault("tool_rate_limit", 5)
}

// bindEnvVariables binds environment variables explicitly. Hardcoded
// keys cannot fail to bind; a panic here is a bug.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("port", "SAVE_PORT")
	mustBind("host", "SAVE_HOST")
	mustBind("model_name", "SAVE_MODEL_NAME")
	mustBind("embedder_model", "SAVE_EMBEDDER_MODEL")
	mustBind("corpus_dir", "SAVE_CORPUS_DIR")
	mustBind("top_k", "SAVE_TOP_K")
	mustBind("lexical_weight", "SAVE_LEXICAL_WEIGHT")

	mustBind("session_ttl_minutes", "SAVE_SESSION_TTL_MINUTES")
	mustBind("max_turns", "SAVE_MAX_TURNS")
	mustBind("max_iterations", "SAVE_MAX_ITERATIONS")

	mustBind("tool_timeout_seconds", "SAVE_TOOL_TIMEOUT_SECONDS")
	mustBind("tool_max_retries", "SAVE_TOOL_MAX_RETRIES")
	mustBind("tool_rate_limit", "SAVE_TOOL_RATE_LIMIT")

	mustBind("usda_api_key", "USDA_API_KEY")
	mustBind("tavily_api_key", "TAVILY_API_KEY")

	// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper.
	// Validate() only checks its presence.
}

// Validate checks configuration values. Returns the first problem
// found, wrapped around a sentinel error.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d (must be 1-65535)", ErrInvalidPort, c.Port)
	}
	if c.ModelName == "" {
		return fmt.Errorf("%w: empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: empty", ErrInvalidEmbedderModel)
	}
	if c.TopK < 1 || c.TopK > 50 {
		return fmt.Errorf("%w: %d (must be 1-50)", ErrInvalidTopK, c.TopK)
	}
	if c.LexicalWeight < 0 || c.LexicalWeight > 1 {
		return fmt.Errorf("%w: %g (must be within [0, 1])", ErrInvalidLexicalWeight, c.LexicalWeight)
	}
	if c.MaxIterations < 1 || c.MaxIterations > 20 {
		return fmt.Errorf("%w: %d (must be 1-20)", ErrInvalidMaxIterations, c.MaxIterations)
	}
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: set it in the environment or .env", ErrMissingGeminiKey)
	}
	return nil
}

// HasUSDA reports whether the USDA lookup tool can be enabled.
func (c *Config) HasUSDA() bool { return c.USDAAPIKey != "" }

// HasTavily reports whether the web search tool can be enabled.
func (c *Config) HasTavily() bool { return c.TavilyAPIKey != "" }

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
