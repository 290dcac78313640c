package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Port string `toml:"port"`

	GeminiAPIKey  string `toml:"gemini_api_key"`
	GeminiModel   string `toml:"gemini_model"`
	GeminiBaseURL string `toml:"gemini_base_url"`
	// Engine: движок по умолчанию (gemini | gemini-sdk)
	Engine string `toml:"engine"`

	AnalyzeTimeout time.Duration `toml:"analyze_timeout"`
	SessionTTL     time.Duration `toml:"session_ttl"`
	// ReportTTL: сколько хранить архив; 0 = не чистить
	ReportTTL time.Duration `toml:"report_ttl"`

	DatabaseURL      string `toml:"database_url"`
	TelegramBotToken string `toml:"telegram_bot_token"`
	WebhookURL       string `toml:"webhook_url"`

	ProfilesPath string `toml:"profiles"`
	LogLevel     string `toml:"log_level"`
	LogFormat    string `toml:"log_format"`
}

const (
	DefaultModel          = "gemini-3-pro-preview"
	DefaultEngine         = "gemini"
	DefaultAnalyzeTimeout = 180 * time.Second
	DefaultSessionTTL     = 2 * time.Hour
)

func Default() *Config {
	return &Config{
		Port:           "8000",
		GeminiModel:    DefaultModel,
		Engine:         DefaultEngine,
		AnalyzeTimeout: DefaultAnalyzeTimeout,
		SessionTTL:     DefaultSessionTTL,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load: дефолты → TOML из REALITY_LAB_CONFIG → env. Без ключа Gemini не стартуем.
func Load() *Config {
	cfg, err := Parse(os.Getenv("REALITY_LAB_CONFIG"), os.LookupEnv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Parse собирает конфиг из файла path (может быть пустым) и lookup.
func Parse(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode TOML %s: %w", path, err)
		}
	}
	e := env{lookup: lookup}

	e.str(&cfg.Port, "PORT")
	e.str(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	e.str(&cfg.GeminiModel, "GEMINI_MODEL")
	e.str(&cfg.GeminiBaseURL, "GEMINI_BASE_URL")
	e.str(&cfg.Engine, "FORENSIC_ENGINE")
	e.dur(&cfg.AnalyzeTimeout, "REALITY_LAB_ANALYZE_TIMEOUT")
	e.dur(&cfg.SessionTTL, "REALITY_LAB_SESSION_TTL")
	e.dur(&cfg.ReportTTL, "REALITY_LAB_REPORT_TTL")
	e.str(&cfg.DatabaseURL, "DATABASE_URL")
	e.str(&cfg.TelegramBotToken, "TELEGRAM_BOT_TOKEN")
	e.str(&cfg.WebhookURL, "WEBHOOK_URL")
	e.str(&cfg.ProfilesPath, "REALITY_LAB_PROFILES")
	e.str(&cfg.LogLevel, "REALITY_LAB_LOG_LEVEL")
	e.str(&cfg.LogFormat, "REALITY_LAB_LOG_FORMAT")
	if e.err != nil {
		return nil, e.err
	}

	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return nil, fmt.Errorf("missing required env GEMINI_API_KEY")
	}
	if cfg.AnalyzeTimeout <= 0 {
		return nil, fmt.Errorf("analyze timeout must be positive, got %s", cfg.AnalyzeTimeout)
	}
	return cfg, nil
}

type env struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *env) get(k string) (string, bool) {
	v, ok := e.lookup(k)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *env) str(dst *string, k string) {
	if v, ok := e.get(k); ok {
		*dst = v
	}
}

func (e *env) dur(dst *time.Duration, k string) {
	v, ok := e.get(k)
	if !ok || e.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("env %s: %w", k, err)
		return
	}
	*dst = d
}
