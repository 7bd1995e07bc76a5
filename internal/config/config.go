package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      App      `mapstructure:"app"`
	AI       AI       `mapstructure:"ai"`
	Store    Store    `mapstructure:"store"`
	Shows    Shows    `mapstructure:"shows"`
	Weather  Weather  `mapstructure:"weather"`
	Mailbox  Mailbox  `mapstructure:"mailbox"`
	Pipeline Pipeline `mapstructure:"pipeline"`
	Output   Output   `mapstructure:"output"`
	Logging  Logging  `mapstructure:"logging"`

	// ConfigFile is the file viper read, empty when running on defaults.
	ConfigFile string `mapstructure:"-"`
}

// App holds general application configuration
type App struct {
	Debug   bool   `mapstructure:"debug"`
	DataDir string `mapstructure:"data_dir"`
}

// AI holds narrative synthesis configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey       string  `mapstructure:"api_key"`
	Model        string  `mapstructure:"model"`
	Timeout      string  `mapstructure:"timeout"`
	MaxTokens    int32   `mapstructure:"max_tokens"`
	Temperature  float32 `mapstructure:"temperature"`
	MaxRetries   int     `mapstructure:"max_retries"`
	RetryBackoff string  `mapstructure:"retry_backoff"`
}

// Store holds persistence configuration
type Store struct {
	Path string `mapstructure:"path"`
}

// Shows selects the show catalog and the show used by default
type Shows struct {
	File    string `mapstructure:"file"`
	Default string `mapstructure:"default"`
}

// Weather holds the intro weather lookup configuration
type Weather struct {
	Enabled   bool    `mapstructure:"enabled"`
	BaseURL   string  `mapstructure:"base_url"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	Location  string  `mapstructure:"location"`
	Timeout   string  `mapstructure:"timeout"`
}

// Mailbox selects where raw newsletter messages come from
type Mailbox struct {
	Provider string      `mapstructure:"provider"` // file or gmail
	File     string      `mapstructure:"file"`
	Gmail    GmailConfig `mapstructure:"gmail"`
}

// GmailConfig holds Gmail API configuration
type GmailConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
	Label           string `mapstructure:"label"`
	Window          string `mapstructure:"window"`
	MaxMessages     int64  `mapstructure:"max_messages"`
}

// Pipeline holds the tunable thresholds of the content engine
type Pipeline struct {
	MinContentChars     int     `mapstructure:"min_content_chars"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	MinKeywordMatches   int     `mapstructure:"min_keyword_matches"`
	ClassifyScanChars   int     `mapstructure:"classify_scan_chars"`
}

// Output holds export configuration
type Output struct {
	Directory string `mapstructure:"directory"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from defaults, an optional config file, .env and
// the environment. Each call builds its own viper instance.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName(".noctua")
		v.SetConfigType("yaml")
	}

	setDefaults(v)
	bindEnvironmentVariables(v)

	v.SetEnvPrefix("NOCTUA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.ConfigFile = v.ConfigFileUsed()

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.debug", false)
	v.SetDefault("app.data_dir", ".noctua")

	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.timeout", "120s")
	v.SetDefault("ai.gemini.max_tokens", 16384)
	v.SetDefault("ai.gemini.temperature", 0.3)
	v.SetDefault("ai.gemini.max_retries", 3)
	v.SetDefault("ai.gemini.retry_backoff", "2s")

	v.SetDefault("store.path", "")

	v.SetDefault("shows.file", "")
	v.SetDefault("shows.default", "hootline")

	v.SetDefault("weather.enabled", true)
	v.SetDefault("weather.base_url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("weather.latitude", 47.6062)
	v.SetDefault("weather.longitude", -122.3321)
	v.SetDefault("weather.location", "Seattle")
	v.SetDefault("weather.timeout", "3s")

	v.SetDefault("mailbox.provider", "file")
	v.SetDefault("mailbox.file", "inbox.json")
	v.SetDefault("mailbox.gmail.credentials_file", "credentials.json")
	v.SetDefault("mailbox.gmail.token_file", "token.json")
	v.SetDefault("mailbox.gmail.label", "Newsletters")
	v.SetDefault("mailbox.gmail.window", "24h")
	v.SetDefault("mailbox.gmail.max_messages", 100)

	v.SetDefault("pipeline.min_content_chars", 50)
	v.SetDefault("pipeline.similarity_threshold", 0.6)
	v.SetDefault("pipeline.min_keyword_matches", 2)
	v.SetDefault("pipeline.classify_scan_chars", 2000)

	v.SetDefault("output.directory", "digests")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables(v *viper.Viper) {
	bindEnvKeys(v, "ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys(v, "app.debug", []string{
		"DEBUG",
		"NOCTUA_DEBUG",
	})

	bindEnvKeys(v, "mailbox.gmail.credentials_file", []string{
		"GMAIL_CREDENTIALS_FILE",
	})

	bindEnvKeys(v, "mailbox.gmail.token_file", []string{
		"GMAIL_TOKEN_FILE",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(v *viper.Viper, viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			v.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	config.App.DataDir = expandPath(config.App.DataDir)
	if config.Store.Path == "" {
		config.Store.Path = filepath.Join(config.App.DataDir, "noctua.db")
	}
	config.Store.Path = expandPath(config.Store.Path)
	config.Output.Directory = expandPath(config.Output.Directory)
	config.Mailbox.File = expandPath(config.Mailbox.File)
	config.Mailbox.Gmail.CredentialsFile = expandPath(config.Mailbox.Gmail.CredentialsFile)
	config.Mailbox.Gmail.TokenFile = expandPath(config.Mailbox.Gmail.TokenFile)
	if config.Shows.File != "" {
		config.Shows.File = expandPath(config.Shows.File)
	}

	durations := map[string]string{
		"ai.gemini.timeout":       config.AI.Gemini.Timeout,
		"ai.gemini.retry_backoff": config.AI.Gemini.RetryBackoff,
		"weather.timeout":         config.Weather.Timeout,
		"mailbox.gmail.window":    config.Mailbox.Gmail.Window,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures configuration values are usable
func validateConfig(config *Config) error {
	var errs []string

	p := config.Pipeline
	if p.MinContentChars < 0 {
		errs = append(errs, "pipeline.min_content_chars must not be negative")
	}
	if p.SimilarityThreshold <= 0 || p.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Sprintf("pipeline.similarity_threshold must be in (0, 1], got %v", p.SimilarityThreshold))
	}
	if p.MinKeywordMatches < 1 {
		errs = append(errs, "pipeline.min_keyword_matches must be at least 1")
	}
	if p.ClassifyScanChars <= 0 {
		errs = append(errs, "pipeline.classify_scan_chars must be positive")
	}
	if config.AI.Gemini.MaxRetries < 1 {
		errs = append(errs, "ai.gemini.max_retries must be at least 1")
	}

	switch config.Mailbox.Provider {
	case "file":
		if config.Mailbox.File == "" {
			errs = append(errs, "mailbox.file is required for the file provider")
		}
	case "gmail":
		if config.Mailbox.Gmail.Label == "" {
			errs = append(errs, "mailbox.gmail.label is required for the gmail provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("Unknown mailbox provider: %s. Supported: file, gmail", config.Mailbox.Provider))
	}

	switch strings.ToLower(config.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Sprintf("Unknown logging format: %s. Supported: json, text", config.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// Duration parses a validated duration string, returning fallback when empty.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// HasGemini reports whether narrative synthesis can be attempted.
func (c *Config) HasGemini() bool {
	return isValidAPIKey(c.AI.Gemini.APIKey)
}

// isValidAPIKey checks if an API key is valid (not empty and not a placeholder)
func isValidAPIKey(apiKey string) bool {
	if apiKey == "" {
		return false
	}

	placeholders := []string{
		"your-api-key", "your-gemini-key", "YOUR_API_KEY", "PLACEHOLDER", "TODO", "CHANGE_ME",
	}
	for _, placeholder := range placeholders {
		if apiKey == placeholder {
			return false
		}
	}

	return true
}
