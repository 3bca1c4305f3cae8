package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted in the generation block.
const (
	ProviderOpenAI   = "openai"
	ProviderGroq     = "groq"
	ProviderCerebras = "cerebras"
)

const DefaultTemperature = 0.7

type Config struct {
	Env            string
	ServiceName    string
	ServiceVersion string

	DatabaseURL string
	RedisURL    string

	SupabaseURL       string
	SupabaseJWTSecret string

	OpenAIKey   string
	GroqKey     string
	CerebrasKey string

	OtelExporterOTLPEndpoint string
	OtelExporterOTLPHeaders  string
	SentryDSN                string

	Port string

	Generation GenerationConfig
	Worker     WorkerConfig
	Sessions   SessionConfig
}

type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// SessionConfig bounds the in-memory session registry.
type SessionConfig struct {
	MaxSessions int           `yaml:"max_sessions"`
	IdleTTL     time.Duration `yaml:"idle_ttl"`
}

type GenerationConfig struct {
	Provider         string        `yaml:"provider"`
	FallbackEnabled  bool          `yaml:"fallback_enabled"`
	FallbackProvider string        `yaml:"fallback_provider"`
	Model            string        `yaml:"model"`
	BaseURL          string        `yaml:"base_url"`
	RecipeCount      int           `yaml:"recipe_count"`
	MaxTokens        int           `yaml:"max_tokens"`
	Temperature      *float64      `yaml:"temperature"`
	OutputFormat     string        `yaml:"output_format"`
	MinIngredients   int           `yaml:"min_ingredients"`
	MaxAttempts      int           `yaml:"max_attempts"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	Timeout          time.Duration `yaml:"timeout"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                      os.Getenv("ENV"),
		ServiceName:              os.Getenv("SERVICE_NAME"),
		ServiceVersion:           os.Getenv("SERVICE_VERSION"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		RedisURL:                 os.Getenv("REDIS_URL"),
		SupabaseURL:              os.Getenv("SUPABASE_URL"),
		SupabaseJWTSecret:        os.Getenv("SUPABASE_JWT_SECRET"),
		OpenAIKey:                os.Getenv("OPENAI_API_KEY"),
		GroqKey:                  os.Getenv("GROQ_API_KEY"),
		CerebrasKey:              os.Getenv("CEREBRAS_API_KEY"),
		OtelExporterOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelExporterOTLPHeaders:  os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
		SentryDSN:                os.Getenv("SENTRY_DSN"),
		Port:                     os.Getenv("PORT"),
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	if err := cfg.LoadFromYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "larder"
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "1.0.0"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = 10
	}
	if cfg.Sessions.MaxSessions == 0 {
		cfg.Sessions.MaxSessions = 10000
	}
	if cfg.Sessions.IdleTTL == 0 {
		cfg.Sessions.IdleTTL = 30 * time.Minute
	}

	cfg.SetGenerationDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func (c *Config) LoadFromYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File not found is not an error
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlConfig struct {
		Generation GenerationConfig `yaml:"generation"`
		Worker     WorkerConfig     `yaml:"worker"`
		Sessions   SessionConfig    `yaml:"sessions"`
	}

	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	g := yamlConfig.Generation
	if g.Provider != "" {
		c.Generation.Provider = strings.ToLower(g.Provider)
	}
	if g.FallbackEnabled {
		c.Generation.FallbackEnabled = true
	}
	if g.FallbackProvider != "" {
		c.Generation.FallbackProvider = strings.ToLower(g.FallbackProvider)
	}
	if g.Model != "" {
		c.Generation.Model = g.Model
	}
	if g.BaseURL != "" {
		c.Generation.BaseURL = g.BaseURL
	}
	if g.RecipeCount != 0 {
		c.Generation.RecipeCount = g.RecipeCount
	}
	if g.MaxTokens != 0 {
		c.Generation.MaxTokens = g.MaxTokens
	}
	if g.Temperature != nil {
		t := *g.Temperature
		c.Generation.Temperature = &t
	}
	if g.OutputFormat != "" {
		c.Generation.OutputFormat = strings.ToLower(g.OutputFormat)
	}
	if g.MinIngredients != 0 {
		c.Generation.MinIngredients = g.MinIngredients
	}
	if g.MaxAttempts != 0 {
		c.Generation.MaxAttempts = g.MaxAttempts
	}
	if g.CacheTTL != 0 {
		c.Generation.CacheTTL = g.CacheTTL
	}
	if g.Timeout != 0 {
		c.Generation.Timeout = g.Timeout
	}
	if yamlConfig.Worker.Concurrency != 0 {
		c.Worker.Concurrency = yamlConfig.Worker.Concurrency
	}
	if yamlConfig.Sessions.MaxSessions != 0 {
		c.Sessions.MaxSessions = yamlConfig.Sessions.MaxSessions
	}
	if yamlConfig.Sessions.IdleTTL != 0 {
		c.Sessions.IdleTTL = yamlConfig.Sessions.IdleTTL
	}

	return nil
}

func (c *Config) SetGenerationDefaults() {
	g := &c.Generation
	if g.Provider == "" {
		g.Provider = ProviderOpenAI
	}
	if g.FallbackProvider == "" {
		g.FallbackProvider = ProviderGroq
	}
	if g.RecipeCount == 0 {
		g.RecipeCount = 3
	}
	if g.MaxTokens == 0 {
		g.MaxTokens = 500
	}
	if g.Temperature == nil {
		t := DefaultTemperature
		g.Temperature = &t
	}
	if g.OutputFormat == "" {
		g.OutputFormat = "text"
	}
	if g.MinIngredients == 0 {
		g.MinIngredients = 3
	}
	if g.MaxAttempts == 0 {
		g.MaxAttempts = 1
	}
	if g.CacheTTL == 0 {
		g.CacheTTL = time.Hour
	}
	if g.Timeout == 0 {
		g.Timeout = 60 * time.Second
	}
}

// SamplingTemperature returns the configured temperature. An explicit 0 is kept.
func (g GenerationConfig) SamplingTemperature() float64 {
	if g.Temperature == nil {
		return DefaultTemperature
	}
	return *g.Temperature
}

// APIKey returns the credential configured for a provider.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case ProviderGroq:
		return c.GroqKey
	case ProviderCerebras:
		return c.CerebrasKey
	case ProviderOpenAI:
		return c.OpenAIKey
	default:
		return ""
	}
}

// AuthEnabled reports whether requests must carry a Supabase JWT.
func (c *Config) AuthEnabled() bool {
	return c.SupabaseJWTSecret != ""
}

// OTLPHeaders parses OTEL_EXPORTER_OTLP_HEADERS ("k1=v1,k2=v2").
func (c *Config) OTLPHeaders() map[string]string {
	if c.OtelExporterOTLPHeaders == "" {
		return nil
	}
	headers := make(map[string]string)
	for _, pair := range strings.Split(c.OtelExporterOTLPHeaders, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			continue
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers
}

func (c *Config) validate() error {
	g := c.Generation
	if err := c.validateProvider(g.Provider); err != nil {
		return err
	}
	if g.FallbackEnabled {
		if err := c.validateProvider(g.FallbackProvider); err != nil {
			return fmt.Errorf("fallback: %w", err)
		}
	}
	if g.OutputFormat != "text" && g.OutputFormat != "json" {
		return fmt.Errorf("generation.output_format must be text or json, got %q", g.OutputFormat)
	}
	if g.RecipeCount < 1 || g.RecipeCount > 10 {
		return fmt.Errorf("generation.recipe_count must be between 1 and 10, got %d", g.RecipeCount)
	}
	if g.MinIngredients < 1 {
		return fmt.Errorf("generation.min_ingredients must be at least 1, got %d", g.MinIngredients)
	}
	if t := g.SamplingTemperature(); t < 0 || t > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %v", t)
	}
	if c.Sessions.MaxSessions < 0 {
		return fmt.Errorf("sessions.max_sessions must not be negative, got %d", c.Sessions.MaxSessions)
	}
	if c.SupabaseJWTSecret != "" && c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required when SUPABASE_JWT_SECRET is set")
	}
	return nil
}

func (c *Config) validateProvider(provider string) error {
	switch provider {
	case ProviderOpenAI, ProviderGroq, ProviderCerebras:
	default:
		return fmt.Errorf("unknown generation provider %q", provider)
	}
	if c.APIKey(provider) == "" {
		return fmt.Errorf("%s_API_KEY is required for provider %s", strings.ToUpper(provider), provider)
	}
	return nil
}
