package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort          = 8080
	DefaultBroadcastInterval = 5 * time.Second
	DefaultAuthHeader        = "x-api-key"
	DefaultHistoryBackend    = "memory"
	DefaultHistoryTTL        = 15 * time.Minute
	DefaultRedisKeyPrefix    = "pwstrength:"
	DefaultMaxIterations     = 1_000_000
	DefaultRounds            = 15
	DefaultWarmupRounds      = 5
	DefaultLogLevel          = "info"

	// maxRounds bounds both rounds and warmup_rounds.
	maxRounds = 1000
)

// Config is the top-level configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Bench  BenchConfig  `yaml:"bench"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, metrics and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port"`

	// BroadcastInterval is how often the WebSocket hub pushes history.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// Auth configures API key authentication for /api/ and /ws/.
	Auth AuthConfig `yaml:"auth"`

	// History configures where benchmark reports are kept.
	History HistoryConfig `yaml:"history"`
}

// AuthConfig controls client authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header carrying the key. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// HistoryConfig selects and tunes the benchmark history backend.
type HistoryConfig struct {
	// Backend is one of: memory | redis.
	Backend string `yaml:"backend"`

	// TTL is how long a report stays listed after it was stored.
	TTL time.Duration `yaml:"ttl"`

	// Redis is used when Backend == "redis".
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds the connection settings of the Redis history backend.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`
	KeyPrefix   string `yaml:"key_prefix"`
}

// Password returns the Redis password resolved from the environment.
func (r RedisConfig) Password() string {
	if r.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(r.PasswordEnv)
}

// BenchConfig holds benchmark defaults and limits for API requests.
type BenchConfig struct {
	// Iterations per timed round when a request does not give one.
	// Zero selects the adaptive count.
	Iterations uint32 `yaml:"iterations"`

	// MaxIterations is the largest iteration count a request may ask for.
	MaxIterations uint32 `yaml:"max_iterations"`

	// Rounds is the default number of timed rounds.
	Rounds int `yaml:"rounds"`

	// WarmupRounds is the default number of untimed rounds.
	WarmupRounds int `yaml:"warmup_rounds"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// SlogLevel converts Level to a slog.Level. Validation guarantees it parses.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	applyImplicit(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			BroadcastInterval: DefaultBroadcastInterval,
			Auth:              AuthConfig{Header: DefaultAuthHeader},
			History: HistoryConfig{
				Backend: DefaultHistoryBackend,
				TTL:     DefaultHistoryTTL,
				Redis:   RedisConfig{KeyPrefix: DefaultRedisKeyPrefix},
			},
		},
		Bench: BenchConfig{
			MaxIterations: DefaultMaxIterations,
			Rounds:        DefaultRounds,
			WarmupRounds:  DefaultWarmupRounds,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// applyImplicit fills fields that YAML can blank out explicitly.
func applyImplicit(cfg *Config) {
	if cfg.Server.Auth.Header == "" {
		cfg.Server.Auth.Header = DefaultAuthHeader
	}
	if cfg.Server.History.Backend == "" {
		cfg.Server.History.Backend = DefaultHistoryBackend
	}
	if cfg.Server.History.Redis.KeyPrefix == "" {
		cfg.Server.History.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Auth.Mode == "apikey" && cfg.Server.Auth.KeyEnv == "" {
		return fmt.Errorf("server.auth.key_env is required when mode is apikey")
	}
	switch cfg.Server.History.Backend {
	case "memory":
	case "redis":
		if cfg.Server.History.Redis.Addr == "" {
			return fmt.Errorf("server.history.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("server.history.backend %q unknown: want memory|redis", cfg.Server.History.Backend)
	}
	if cfg.Server.History.TTL <= 0 {
		return fmt.Errorf("server.history.ttl must be positive")
	}
	if cfg.Bench.MaxIterations == 0 {
		return fmt.Errorf("bench.max_iterations must be positive")
	}
	if cfg.Bench.Iterations > cfg.Bench.MaxIterations {
		return fmt.Errorf("bench.iterations %d exceeds bench.max_iterations %d",
			cfg.Bench.Iterations, cfg.Bench.MaxIterations)
	}
	if cfg.Bench.Rounds <= 0 || cfg.Bench.Rounds > maxRounds {
		return fmt.Errorf("bench.rounds %d is out of range [1, %d]", cfg.Bench.Rounds, maxRounds)
	}
	if cfg.Bench.WarmupRounds < 0 || cfg.Bench.WarmupRounds > maxRounds {
		return fmt.Errorf("bench.warmup_rounds %d is out of range [0, %d]", cfg.Bench.WarmupRounds, maxRounds)
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}
