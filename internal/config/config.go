// Package config provides configuration loading and validation for the discovery service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jonathan/cb-discovery/internal/llm"
)

// EnvPrefix is the prefix of every environment override, e.g. DISCOVERY_SERVER_ADDR.
const EnvPrefix = "DISCOVERY"

// Config is the full service configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Survey   SurveyConfig   `mapstructure:"survey"`
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RateLimit      int           `mapstructure:"rate_limit"` // requests per minute per client and endpoint
	RateBurst      int           `mapstructure:"rate_burst"`
}

// DatabaseConfig holds the PostgreSQL connection URL. Empty disables submission storage.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds the session store connection. Empty Address keeps sessions in memory.
type RedisConfig struct {
	Address    string        `mapstructure:"address"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// LLMConfig selects the completion provider.
type LLMConfig struct {
	Provider        string  `mapstructure:"provider"`
	GeminiAPIKey    string  `mapstructure:"gemini_api_key"`
	AnthropicAPIKey string  `mapstructure:"anthropic_api_key"`
	Temperature     float32 `mapstructure:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens"`
}

// AuthConfig holds token and role password settings.
type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	JWTExpirationHours int           `mapstructure:"jwt_expiration_hours"`
	BcryptCost         int           `mapstructure:"bcrypt_cost"`
	Pepper             string        `mapstructure:"password_pepper"`
	Passwords          RolePasswords `mapstructure:"passwords"`
}

// RolePasswords holds the shared password of each role. An empty password disables the role.
type RolePasswords struct {
	User               string `mapstructure:"user"`
	Head               string `mapstructure:"head"`
	Admin              string `mapstructure:"admin"`
	DataInfrastructure string `mapstructure:"data_infrastructure"`
}

// SurveyConfig holds catalog and export settings.
type SurveyConfig struct {
	CatalogPath string        `mapstructure:"catalog_path"` // empty uses the embedded catalog
	TestMode    bool          `mapstructure:"test_mode"`
	ChromePath  string        `mapstructure:"chrome_path"`
	PDFTimeout  time.Duration `mapstructure:"pdf_timeout"`
}

// plainEnv maps config keys to the unprefixed variable names also accepted.
var plainEnv = map[string]string{
	"database.url":              "DATABASE_URL",
	"redis.address":             "REDIS_ADDR",
	"llm.gemini_api_key":        "GEMINI_API_KEY",
	"llm.anthropic_api_key":     "ANTHROPIC_API_KEY",
	"auth.jwt_secret":           "JWT_SECRET",
	"auth.jwt_expiration_hours": "JWT_EXPIRATION_HOURS",
	"auth.bcrypt_cost":          "BCRYPT_COST",
	"auth.password_pepper":      "PASSWORD_PEPPER",
	"survey.chrome_path":        "CHROME_PATH",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("database.url", "")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.session_ttl", 12*time.Hour)
	v.SetDefault("llm.provider", string(llm.ProviderGemini))
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.anthropic_api_key", "")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiration_hours", 24)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.password_pepper", "")
	v.SetDefault("auth.passwords.user", "")
	v.SetDefault("auth.passwords.head", "")
	v.SetDefault("auth.passwords.admin", "")
	v.SetDefault("auth.passwords.data_infrastructure", "")
	v.SetDefault("survey.catalog_path", "")
	v.SetDefault("survey.test_mode", false)
	v.SetDefault("survey.chrome_path", "")
	v.SetDefault("survey.pdf_timeout", 60*time.Second)
}

// Load reads configuration from path (optional, YAML or JSON), a .env file in
// the working directory and the environment. Environment values win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // a missing .env is fine

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, plain := range plainEnv {
		envName := EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		if err := v.BindEnv(key, envName, plain); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("discovery")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Server.AllowedOrigins = splitOrigins(cfg.Server.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitOrigins accepts both a list and a single comma-separated value from the environment.
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

// Validate checks that the configuration has valid values.
// Secrets are not required here; commands that need them check on use.
func (c *Config) Validate() error {
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("config error: 'server.rate_limit' must be non-negative")
	}
	if c.Server.RateBurst < 0 {
		return fmt.Errorf("config error: 'server.rate_burst' must be non-negative")
	}
	if c.Redis.SessionTTL < 0 {
		return fmt.Errorf("config error: 'redis.session_ttl' must be non-negative")
	}
	if _, err := llm.ParseProvider(c.LLM.Provider); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("config error: 'llm.temperature' must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("config error: 'llm.max_tokens' must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("config error: 'log.format' must be json or console, got %q", c.Log.Format)
	}
	if c.Survey.CatalogPath != "" {
		if _, err := os.Stat(c.Survey.CatalogPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: catalog file not found: %s", c.Survey.CatalogPath)
		}
	}
	return nil
}

// APIKey returns the key of the configured provider.
func (c LLMConfig) APIKey() string {
	p, _ := llm.ParseProvider(c.Provider)
	switch p {
	case llm.ProviderAnthropic:
		return c.AnthropicAPIKey
	case llm.ProviderGemini:
		return c.GeminiAPIKey
	default:
		return ""
	}
}

// ClientConfig returns the provider model config with the temperature and token overrides applied.
func (c LLMConfig) ClientConfig() (*llm.Config, error) {
	p, err := llm.ParseProvider(c.Provider)
	if err != nil {
		return nil, err
	}
	cfg := llm.ConfigFor(p)
	if c.Temperature > 0 {
		cfg.Temperature = c.Temperature
	}
	if c.MaxTokens > 0 {
		cfg.MaxTokens = c.MaxTokens
	}
	return cfg, nil
}
