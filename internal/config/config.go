package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the full application configuration
type Config struct {
	GitHub    GitHubConfig    `yaml:"github"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Sync      SyncConfig      `yaml:"sync"`
}

// GitHubConfig identifies the single upstream repository being tracked
type GitHubConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
}

// FullRepo returns the owner/repo form
func (g *GitHubConfig) FullRepo() string {
	return fmt.Sprintf("%s/%s", g.Owner, g.Repo)
}

// QdrantConfig contains Qdrant connection settings
type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig contains embedding provider settings
type EmbeddingConfig struct {
	Primary  ProviderConfig `yaml:"primary"`
	Fallback ProviderConfig `yaml:"fallback"`
}

// ProviderConfig contains settings for an embedding provider
type ProviderConfig struct {
	Provider   string `yaml:"provider"` // "openai" or "gemini"
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
}

// DatabaseConfig contains relational store settings
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	CronSecret string `yaml:"cron_secret"`
}

// SyncConfig contains reconciliation settings
type SyncConfig struct {
	FullCheckIntervalMinutes int `yaml:"full_check_interval_minutes"`
}

// FullCheckInterval returns the closure-check interval as a duration
func (s *SyncConfig) FullCheckInterval() time.Duration {
	return time.Duration(s.FullCheckIntervalMinutes) * time.Minute
}

// Load reads and parses config from the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	expandConfigEnvVars(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// FindConfigPath looks for config in common locations
func FindConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	paths := []string{
		"claw-trends.yaml",
		"claw-trends.yml",
		".github/claw-trends.yaml",
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homePath := filepath.Join(home, ".config", "claw-trends", "config.yaml")
		if _, err := os.Stat(homePath); err == nil {
			return homePath
		}
	}

	return ""
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "claw_trends"
	}
	if cfg.Embedding.Primary.Dimensions == 0 {
		cfg.Embedding.Primary.Dimensions = 768
	}
	if cfg.Embedding.Fallback.Dimensions == 0 {
		cfg.Embedding.Fallback.Dimensions = 768
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Sync.FullCheckIntervalMinutes == 0 {
		cfg.Sync.FullCheckIntervalMinutes = 60
	}
}
