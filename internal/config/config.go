package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Sync struct {
		Secret string `yaml:"secret"`
	} `yaml:"sync"`
	Quiz struct {
		AnswerTimeout   string `yaml:"answerTimeout"`
		HistoryCapacity int    `yaml:"historyCapacity"`
		LeaderboardSize int    `yaml:"leaderboardSize"`
		ArchiveCapacity int    `yaml:"archiveCapacity"`
	} `yaml:"quiz"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path. The sync secret may also come from the
// SYNC_SECRET env var so it stays out of checked-in config files.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if secret := os.Getenv("SYNC_SECRET"); secret != "" {
		cfg.Sync.Secret = secret
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// ArchiveCapacity bounds how many archived questions are reloaded at
// startup; the default mirrors the historical archive the sync client keeps.
func (c Config) ArchiveCapacity() int {
	if c.Quiz.ArchiveCapacity > 0 {
		return c.Quiz.ArchiveCapacity
	}
	return 100
}
