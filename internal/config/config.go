package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		CORSOrigins    []string `yaml:"cors_origins"`
		MaxConnections int      `yaml:"max_connections"`
	} `yaml:"server"`
	RateLimit struct {
		Window string `yaml:"window"`
		Max    int    `yaml:"max"`
	} `yaml:"ratelimit"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path. A missing file yields defaults so the
// server can start against the in-memory store out of the box.
func Load(path string) (Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaults() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.CORSOrigins = []string{"http://localhost:5173"}
	cfg.Server.MaxConnections = 200
	cfg.RateLimit.Window = "1m"
	cfg.RateLimit.Max = 30
	return cfg
}

// TTLDuration parses a duration string or returns the fallback if empty
// or unparseable.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
