package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full bot configuration, loaded from an optional YAML
// file with environment variable overrides (prefix DIALOGKEEPER_).
type Config struct {
	Telegram    Telegram       `mapstructure:"telegram"`
	OpenAI      OpenAI         `mapstructure:"openai"`
	DBPath      string         `mapstructure:"db_path"`
	LongDialog  LongDialog     `mapstructure:"long_dialog"`
	Persistence Persistence    `mapstructure:"persistence"`
	ModelLimits map[string]int `mapstructure:"model_limits"`
	Sampling    Sampling       `mapstructure:"sampling"`
}

// Telegram holds bot API settings.
type Telegram struct {
	Token          string `mapstructure:"token"`
	PollTimeout    int    `mapstructure:"poll_timeout"`
	SleepSeconds   int    `mapstructure:"sleep_seconds"`
	RequestTimeout int    `mapstructure:"request_timeout"`
}

// APIBase returns the bot API base URL for the configured token.
func (t Telegram) APIBase() string {
	return "https://api.telegram.org/bot" + t.Token
}

// OpenAI holds chat completion API settings.
type OpenAI struct {
	APIKey         string `mapstructure:"api_key"`
	ChatCompURL    string `mapstructure:"chat_completions_url"`
	Model          string `mapstructure:"model"`
	RequestTimeout int    `mapstructure:"request_timeout"`
}

// LongDialog controls budgeted context assembly.
type LongDialog struct {
	Enabled                 bool    `mapstructure:"enabled"`
	KeywordsEnabled         bool    `mapstructure:"keywords_enabled"`
	UpdateSummaryFraction   float64 `mapstructure:"update_summary_fraction"`
	SystemImportantFraction float64 `mapstructure:"system_important_fraction"`
}

// Persistence controls the metadata and transcript sinks.
type Persistence struct {
	Driver            string `mapstructure:"driver"`
	Dir               string `mapstructure:"dir"`
	RedisAddr         string `mapstructure:"redis_addr"`
	RedisPassword     string `mapstructure:"redis_password"`
	RedisDB           int    `mapstructure:"redis_db"`
	RedisTTLDays      int    `mapstructure:"redis_ttl_days"`
	Metadata          bool   `mapstructure:"metadata"`
	MetadataMinutes   int    `mapstructure:"metadata_minutes"`
	Transcript        bool   `mapstructure:"transcript"`
	TranscriptMinutes int    `mapstructure:"transcript_minutes"`
}

// MetadataInterval returns the metadata debounce interval.
func (p Persistence) MetadataInterval() time.Duration {
	return time.Duration(p.MetadataMinutes) * time.Minute
}

// TranscriptInterval returns the transcript debounce interval.
func (p Persistence) TranscriptInterval() time.Duration {
	return time.Duration(p.TranscriptMinutes) * time.Minute
}

// Sampling holds the default sampling options for new sessions.
type Sampling struct {
	Temperature      float64 `mapstructure:"temperature"`
	TopP             float64 `mapstructure:"top_p"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	FrequencyPenalty float64 `mapstructure:"frequency_penalty"`
	PresencePenalty  float64 `mapstructure:"presence_penalty"`
}

// Load reads configuration from the given file (may be empty for
// env-only operation) and validates it.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("telegram.poll_timeout", 30)
	v.SetDefault("telegram.sleep_seconds", 1)
	v.SetDefault("telegram.request_timeout", 65)
	v.SetDefault("openai.chat_completions_url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.request_timeout", 120)
	v.SetDefault("db_path", "data/dialogs.db")
	v.SetDefault("long_dialog.enabled", true)
	v.SetDefault("long_dialog.keywords_enabled", true)
	v.SetDefault("long_dialog.update_summary_fraction", 0.6)
	v.SetDefault("long_dialog.system_important_fraction", 0.3)
	v.SetDefault("persistence.driver", "file")
	v.SetDefault("persistence.dir", "data/dialogs")
	v.SetDefault("persistence.redis_addr", "localhost:6379")
	v.SetDefault("persistence.redis_db", 0)
	v.SetDefault("persistence.redis_ttl_days", 0)
	v.SetDefault("persistence.metadata", true)
	v.SetDefault("persistence.metadata_minutes", 5)
	v.SetDefault("persistence.transcript", true)
	v.SetDefault("persistence.transcript_minutes", 5)
	v.SetDefault("sampling.temperature", 0.7)
	v.SetDefault("sampling.top_p", 1.0)
	v.SetDefault("sampling.max_tokens", 1000)
	v.SetDefault("sampling.frequency_penalty", 0.0)
	v.SetDefault("sampling.presence_penalty", 0.0)

	v.SetEnvPrefix("DIALOGKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required (DIALOGKEEPER_TELEGRAM_TOKEN)")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required (DIALOGKEEPER_OPENAI_API_KEY)")
	}
	if f := c.LongDialog.UpdateSummaryFraction; f <= 0 || f > 1 {
		return fmt.Errorf("long_dialog.update_summary_fraction must be in (0, 1], got %g", f)
	}
	if f := c.LongDialog.SystemImportantFraction; f <= 0 || f > 1 {
		return fmt.Errorf("long_dialog.system_important_fraction must be in (0, 1], got %g", f)
	}
	switch c.Persistence.Driver {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("persistence.driver must be file, redis or memory, got %q", c.Persistence.Driver)
	}
	if c.Sampling.MaxTokens <= 0 {
		return fmt.Errorf("sampling.max_tokens must be positive, got %d", c.Sampling.MaxTokens)
	}
	return nil
}
