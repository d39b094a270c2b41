package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Clients ClientsConfig `koanf:"clients"`
	History HistoryConfig `koanf:"history"`
	PushLog PushLogConfig `koanf:"push_log"`
	LLM     LLMConfig     `koanf:"llm"`
	Tracing TracingConfig `koanf:"tracing"`
	Log     LogConfig     `koanf:"log"`
}

type ServerConfig struct {
	Port        string `koanf:"port"`
	SnippetsDir string `koanf:"snippets_dir"`
}

type ClientsConfig struct {
	Dir       string `koanf:"dir"`
	CacheSize int    `koanf:"cache_size"`
}

type HistoryConfig struct {
	Backend   string        `koanf:"backend"` // memory | redis
	Capacity  int           `koanf:"capacity"`
	RedisAddr string        `koanf:"redis_addr"`
	RedisTTL  time.Duration `koanf:"redis_ttl"`
}

type PushLogConfig struct {
	Backend  string   `koanf:"backend"` // memory | postgres | kafka
	Capacity int      `koanf:"capacity"`
	DSN      string   `koanf:"dsn"`
	Brokers  []string `koanf:"brokers"`
	Topic    string   `koanf:"topic"`
}

type LLMConfig struct {
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

type TracingConfig struct {
	Enabled bool   `koanf:"enabled"`
	Project string `koanf:"project"`
}

type LogConfig struct {
	Level   string `koanf:"level"`
	Console bool   `koanf:"console"`
}

const envPrefix = "LLMANIAC_"

// Load reads config.yaml and overlays LLMANIAC_* environment variables,
// with "__" as the nesting separator (LLMANIAC_SERVER__PORT → server.port).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
