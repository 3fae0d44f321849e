package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"hubsync/internal/catalog"
	"hubsync/internal/platform/huggingface"
)

type HubConfig struct {
	BaseURL   string        `yaml:"base_url" validate:"required,url"`
	Limit     int           `yaml:"limit" validate:"gt=0"`
	Token     string        `yaml:"token"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
	RPS       float64       `yaml:"rps" validate:"gte=0"`
}

type DBConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"gt=0,lte=65535"`
	Name     string `yaml:"name" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	Table    string `yaml:"table" validate:"required,table_name"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

type ServerConfig struct {
	Addr           string  `yaml:"addr" validate:"required"`
	InternalSecret string  `yaml:"internal_secret"`
	TriggerRPS     float64 `yaml:"trigger_rps" validate:"gte=0"`
}

type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" validate:"omitempty,url"`
}

type Config struct {
	Hub     HubConfig     `yaml:"hub"`
	DB      DBConfig      `yaml:"db"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
}

func Default() Config {
	return Config{
		Hub: HubConfig{
			BaseURL:   huggingface.DefaultBaseURL,
			Limit:     500,
			UserAgent: huggingface.DefaultUserAgent,
			RPS:       1,
		},
		DB: DBConfig{
			Host:    "localhost",
			Port:    5432,
			Name:    "postgres",
			User:    "postgres",
			SSLMode: "disable",
			Table:   "huggingface_models",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:       ":8080",
			TriggerRPS: 0.2,
		},
	}
}

// LoadEnvFiles reads .env and .env.local without overriding variables
// already set in the process environment.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load builds the configuration from defaults, an optional YAML file at path,
// and environment variables, in that order of precedence (lowest first).
func Load(path string) (Config, error) {
	LoadEnvFiles()

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Hub.BaseURL, "HF_BASE_URL")
	setString(&cfg.Hub.Token, "HF_TOKEN")
	setString(&cfg.Hub.UserAgent, "HF_USER_AGENT")
	setString(&cfg.DB.Host, "DB_HOST")
	setString(&cfg.DB.Name, "DB_NAME")
	setString(&cfg.DB.User, "DB_USER")
	setString(&cfg.DB.Password, "DB_PASSWORD")
	setString(&cfg.DB.SSLMode, "DB_SSLMODE")
	setString(&cfg.DB.Table, "DB_TABLE")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Server.Addr, "APP_ADDR")
	setString(&cfg.Server.InternalSecret, "INTERNAL_SECRET")
	setString(&cfg.Metrics.PushgatewayURL, "PUSHGATEWAY_URL")

	if err := setInt(&cfg.Hub.Limit, "HF_LIMIT"); err != nil {
		return err
	}
	if err := setInt(&cfg.DB.Port, "DB_PORT"); err != nil {
		return err
	}
	if err := setFloat(&cfg.Hub.RPS, "HF_RPS"); err != nil {
		return err
	}
	if err := setFloat(&cfg.Server.TriggerRPS, "TRIGGER_RPS"); err != nil {
		return err
	}
	if v := os.Getenv("HF_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HF_TIMEOUT: %w", err)
		}
		cfg.Hub.Timeout = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

// Store converts the DB section into the loader's connection settings.
func (c Config) Store() catalog.StoreConfig {
	return catalog.StoreConfig{
		Host:     c.DB.Host,
		Port:     c.DB.Port,
		Database: c.DB.Name,
		User:     c.DB.User,
		Password: c.DB.Password,
		SSLMode:  c.DB.SSLMode,
		Table:    c.DB.Table,
	}
}

func (c Config) HubClient() huggingface.Config {
	return huggingface.Config{
		BaseURL:   c.Hub.BaseURL,
		Token:     c.Hub.Token,
		UserAgent: c.Hub.UserAgent,
		Timeout:   c.Hub.Timeout,
		RPS:       c.Hub.RPS,
	}
}
