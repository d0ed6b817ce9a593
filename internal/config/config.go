// Package config loads service settings from an optional YAML file and the environment.
//
// Precedence, lowest first: built-in defaults, the YAML file named by CONFIG_FILE,
// environment variables (a .env file is loaded into the environment first).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`

	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	CORSOrigins []string `yaml:"cors_origins"`

	// Requests per second and burst allowed per client IP on /api/auth
	AuthRateLimit float64 `yaml:"auth_rate_limit"`
	AuthRateBurst int     `yaml:"auth_rate_burst"`

	BalanceCacheTTL time.Duration `yaml:"balance_cache_ttl"`

	Storage StorageConfig `yaml:"storage"`
	SMTP    SMTPConfig    `yaml:"smtp"`
	Waha    WahaConfig    `yaml:"waha"`
}

type StorageConfig struct {
	URL        string `yaml:"url"`
	ServiceKey string `yaml:"service_key"`
	Bucket     string `yaml:"bucket"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type WahaConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Session string `yaml:"session"`
	// Prefix replacing a leading 0 in local phone numbers
	CountryCode string `yaml:"country_code"`
}

// Default returns the settings used when nothing else is configured
func Default() Config {
	return Config{
		Port:            "8080",
		TokenTTL:        24 * time.Hour,
		CORSOrigins:     []string{"*"},
		AuthRateLimit:   5,
		AuthRateBurst:   10,
		BalanceCacheTTL: time.Minute,
		Storage:         StorageConfig{Bucket: "receipts"},
		Waha: WahaConfig{
			BaseURL:     "http://waha:3000",
			Session:     "default",
			CountryCode: "49",
		},
	}
}

// Load builds the configuration for the current process
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using system environment")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse overlays YAML data onto cfg
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("PORT", &cfg.Port)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("REDIS_URL", &cfg.RedisURL)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("STORAGE_URL", &cfg.Storage.URL)
	str("STORAGE_SERVICE_KEY", &cfg.Storage.ServiceKey)
	str("STORAGE_BUCKET", &cfg.Storage.Bucket)
	str("SMTP_HOST", &cfg.SMTP.Host)
	str("SMTP_PORT", &cfg.SMTP.Port)
	str("SMTP_USER", &cfg.SMTP.User)
	str("SMTP_PASS", &cfg.SMTP.Password)
	str("EMAIL_FROM", &cfg.SMTP.From)
	str("WAHA_BASE_URL", &cfg.Waha.BaseURL)
	str("WAHA_API_KEY", &cfg.Waha.APIKey)
	str("WAHA_SESSION", &cfg.Waha.Session)
	str("WAHA_COUNTRY_CODE", &cfg.Waha.CountryCode)

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}

	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}
	if v, ok := lookup("BALANCE_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid BALANCE_CACHE_TTL: %w", err)
		}
		cfg.BalanceCacheTTL = d
	}
	if v, ok := lookup("AUTH_RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid AUTH_RATE_LIMIT: %w", err)
		}
		cfg.AuthRateLimit = f
	}
	if v, ok := lookup("AUTH_RATE_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AUTH_RATE_BURST: %w", err)
		}
		cfg.AuthRateBurst = n
	}
	return nil
}

// Validate reports settings the HTTP server cannot start without
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	return nil
}
