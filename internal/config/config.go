package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the draft service.
type Config struct {
	Addr        string `yaml:"addr"`
	LogLevel    string `yaml:"log_level"`
	DatabaseURL string `yaml:"database_url"`
	NATSURL     string `yaml:"nats_url"`

	Supervisor struct {
		BatchSize int `yaml:"batch_size"`
		Workers   int `yaml:"workers"`
	} `yaml:"supervisor"`
}

// Load reads an optional YAML file and applies environment overrides.
// Environment variables win over the file, the file over the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Addr:     ":8080",
		LogLevel: "info",
	}
	cfg.Supervisor.BatchSize = 25
	cfg.Supervisor.Workers = 10

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.Supervisor.BatchSize = getEnvAsInt("SUPERVISOR_BATCH_SIZE", cfg.Supervisor.BatchSize)
	cfg.Supervisor.Workers = getEnvAsInt("SUPERVISOR_WORKERS", cfg.Supervisor.Workers)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
