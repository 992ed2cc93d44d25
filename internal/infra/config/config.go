package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Path points at an optional YAML config file. Empty means "use the defaults lookup".
type Path string

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Chat      ChatConfig      `yaml:"chat"`
	Logging   LoggingConfig   `yaml:"logging"`
	Browser   BrowserConfig   `yaml:"browser"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	MaxUploadBytes int64           `yaml:"maxUploadBytes"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// AnalyticsConfig points at the remote VDOT analytics service.
type AnalyticsConfig struct {
	BaseURL string `yaml:"baseUrl"`
	// Timeout of zero leaves the request bounded only by the caller's context.
	Timeout time.Duration `yaml:"timeout"`
}

// ChatConfig controls the coach panel.
type ChatConfig struct {
	ReplyDelay time.Duration `yaml:"replyDelay"`
	LLM        LLMConfig     `yaml:"llm"`
}

// LLMConfig enables model generated coach replies when APIKey is set.
type LLMConfig struct {
	APIKey           string  `yaml:"apiKey"`
	BaseURL          string  `yaml:"baseUrl"`
	Model            string  `yaml:"model"`
	Temperature      float32 `yaml:"temperature"`
	Prompt           string  `yaml:"prompt"`
	MaxHistoryTokens int     `yaml:"maxHistoryTokens"`
}

// Enabled reports whether model replies are configured.
func (c LLMConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// LoggingConfig controls log level and optional file output.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"maxSizeMb"`
}

// BrowserConfig controls the local dashboard experience.
type BrowserConfig struct {
	OpenOnStart bool `yaml:"openOnStart"`
}

// Load reads configuration from a YAML file and environment variables.
// A .env file in the working directory, when present, seeds the environment first.
func Load(path Path) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()

	file := string(path)
	if file == "" {
		file = os.Getenv("CONFIG_PATH")
	}
	if file != "" {
		if err := hydrateFromFile(cfg, file); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_MAX_UPLOAD_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.HTTP.MaxUploadBytes = parsed
		}
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.Analytics.BaseURL = v
	}
	if v := os.Getenv("ANALYTICS_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Analytics.Timeout = parsed
		}
	}
	if v := os.Getenv("CHAT_REPLY_DELAY"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Chat.ReplyDelay = parsed
		}
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.Chat.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.Chat.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Chat.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Chat.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("LLM_MAX_HISTORY_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Chat.LLM.MaxHistoryTokens = parsed
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("BROWSER_OPEN_ON_START"); v != "" {
		cfg.Browser.OpenOnStart = parseBool(v)
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   0,
			MaxUploadBytes: 32 << 20,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
		},
		Analytics: AnalyticsConfig{
			BaseURL: "http://127.0.0.1:5000/api",
		},
		Chat: ChatConfig{
			ReplyDelay: 500 * time.Millisecond,
			LLM: LLMConfig{
				Model:            "gpt-4o-mini",
				Temperature:      0.4,
				Prompt:           "You are Stryde, a friendly running coach who follows Jack Daniels' VDOT system. Keep answers under three sentences and encourage consistent, sustainable training.",
				MaxHistoryTokens: 1024,
			},
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 50,
		},
	}
}

// Validate ensures the configuration is safe to use. Every problem found is reported.
func (c *Config) Validate() error {
	var err error
	if strings.TrimSpace(c.HTTP.Address) == "" {
		err = multierr.Append(err, errors.New("http.address cannot be empty"))
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		err = multierr.Append(err, errors.New("http.maxUploadBytes must be positive"))
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			err = multierr.Append(err, errors.New("http.rateLimit.requestsPerMinute must be positive"))
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			err = multierr.Append(err, errors.New("http.rateLimit.burst must be positive"))
		}
	}
	if base := strings.TrimSpace(c.Analytics.BaseURL); base == "" {
		err = multierr.Append(err, errors.New("analytics.baseUrl cannot be empty"))
	} else if u, perr := url.Parse(base); perr != nil || u.Scheme == "" || u.Host == "" {
		err = multierr.Append(err, fmt.Errorf("analytics.baseUrl %q must be an absolute URL", base))
	}
	if c.Analytics.Timeout < 0 {
		err = multierr.Append(err, errors.New("analytics.timeout cannot be negative"))
	}
	if c.Chat.ReplyDelay < 0 {
		err = multierr.Append(err, errors.New("chat.replyDelay cannot be negative"))
	}
	if c.Chat.LLM.Enabled() {
		if strings.TrimSpace(c.Chat.LLM.Model) == "" {
			err = multierr.Append(err, errors.New("chat.llm.model cannot be empty when llm replies are enabled"))
		}
		if c.Chat.LLM.MaxHistoryTokens <= 0 {
			err = multierr.Append(err, errors.New("chat.llm.maxHistoryTokens must be positive"))
		}
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB <= 0 {
		err = multierr.Append(err, errors.New("logging.maxSizeMb must be positive when logging.file is set"))
	}
	return err
}
