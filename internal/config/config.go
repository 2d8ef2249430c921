package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	TelegramToken string            `yaml:"telegram_token"`
	DatabasePath  string            `yaml:"database_path"`
	LogLevel      string            `yaml:"log_level"`
	Timezone      string            `yaml:"timezone"`
	RetentionDays int               `yaml:"retention_days"`
	Admins        AdminConfig       `yaml:"admins"`
	JoinRequests  JoinRequestConfig `yaml:"join_requests"`
	Stats         StatsConfig       `yaml:"stats"`
	Health        HealthConfig      `yaml:"health"`
}

type AdminConfig struct {
	IDs            []string `yaml:"ids"`
	ChannelOwnerID string   `yaml:"channel_owner_id"`
}

type JoinRequestConfig struct {
	RequireUsername bool `yaml:"require_username"`
	AutoApprove     bool `yaml:"auto_approve"`
}

type StatsConfig struct {
	TopUsers int `yaml:"top_users"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

func DefaultConfig() Config {
	return Config{
		DatabasePath:  "/data/gatekeeper.db",
		LogLevel:      "info",
		Timezone:      "UTC",
		RetentionDays: 90,
		JoinRequests:  JoinRequestConfig{RequireUsername: true, AutoApprove: true},
		Stats:         StatsConfig{TopUsers: 5},
		Health:        HealthConfig{Enabled: false, Addr: ":8080", Metrics: true},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.TelegramToken == "" {
		return Config{}, errors.New("TELEGRAM_TOKEN is required")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.Stats.TopUsers < 1 {
		cfg.Stats.TopUsers = 1
	}

	return cfg, nil
}

// Location resolves the configured timezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func applyEnv(cfg *Config) {
	cfg.TelegramToken = envString("TELEGRAM_TOKEN", cfg.TelegramToken)
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Timezone = envString("TIMEZONE", cfg.Timezone)
	cfg.RetentionDays = envInt("RETENTION_DAYS", cfg.RetentionDays)
	cfg.Admins.IDs = envList("ADMIN_IDS", cfg.Admins.IDs)
	cfg.Admins.ChannelOwnerID = envString("CHANNEL_OWNER_ID", cfg.Admins.ChannelOwnerID)
	cfg.JoinRequests.RequireUsername = envBool("REQUIRE_USERNAME", cfg.JoinRequests.RequireUsername)
	cfg.JoinRequests.AutoApprove = envBool("AUTO_APPROVE", cfg.JoinRequests.AutoApprove)
	cfg.Stats.TopUsers = envInt("TOP_USERS", cfg.Stats.TopUsers)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Health.Metrics = envBool("METRICS_ENABLED", cfg.Health.Metrics)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var ids []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
