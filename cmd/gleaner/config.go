package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration file. Command-line flags and
// environment variables take precedence over values read from it.
type Config struct {
	YouTube YouTubeConfig `yaml:"youtube"`
	Naver   NaverConfig   `yaml:"naver"`
	HTTP    HTTPConfig    `yaml:"http"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`

	// Browser renders YouTube watch pages with headless Chrome.
	Browser bool `yaml:"browser"`
}

type YouTubeConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
}

type NaverConfig struct {
	Timeout time.Duration `yaml:"timeout"`

	// Fallback names the main-content extractor used for pages without a
	// Naver editor container: trafilatura or readability.
	Fallback string `yaml:"fallback"`
}

type HTTPConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	RatePerHost float64       `yaml:"rate_per_host"`
	Burst       int           `yaml:"burst"`
}

type CacheConfig struct {
	// Store is "memory", "none" or the path of a SQLite database.
	Store string        `yaml:"store"`
	TTL   time.Duration `yaml:"ttl"`
}

type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	MaxTimeout time.Duration `yaml:"max_timeout"`
	BodyLimit  string        `yaml:"body_limit"`
	RateLimit  float64       `yaml:"rate_limit"`
}

// Defaults applied by LoadConfig.
const (
	DefaultRatePerHost = 2.0
	DefaultBurst       = 2
	DefaultCacheStore  = "memory"
	DefaultFallback    = "trafilatura"
	DefaultAddr        = ":8080"
)

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Naver: NaverConfig{Fallback: DefaultFallback},
		HTTP: HTTPConfig{
			RatePerHost: DefaultRatePerHost,
			Burst:       DefaultBurst,
		},
		Cache:  CacheConfig{Store: DefaultCacheStore},
		Server: ServerConfig{Addr: DefaultAddr},
	}
}

// LoadConfig reads path over DefaultConfig. An empty path returns the
// defaults. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Naver.Fallback == "" {
		cfg.Naver.Fallback = DefaultFallback
	}
	if cfg.Cache.Store == "" {
		cfg.Cache.Store = DefaultCacheStore
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	return cfg, nil
}
