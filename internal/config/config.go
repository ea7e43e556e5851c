package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Runtime  RuntimeConfig  `yaml:"runtime"`
	Instance InstanceConfig `yaml:"instance"`
	Discord  DiscordConfig  `yaml:"discord"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MetricsPort     int           `yaml:"metricsPort"`
}

// Runtime modes.
const (
	ModeAuto   = "auto"
	ModeServer = "server"
	ModeLambda = "lambda"
)

type RuntimeConfig struct {
	Mode string `yaml:"mode"`
}

// ResolveMode returns server or lambda. Auto selects lambda when the Lambda
// runtime API is advertised in the environment.
func (r RuntimeConfig) ResolveMode(getenv func(string) string) string {
	switch r.Mode {
	case ModeServer, ModeLambda:
		return r.Mode
	}
	if getenv != nil && getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		return ModeLambda
	}
	return ModeServer
}

type InstanceConfig struct {
	ID          string        `yaml:"id"`
	Region      string        `yaml:"region"`
	CallTimeout time.Duration `yaml:"callTimeout"`
	MaxAttempts int           `yaml:"maxAttempts"`
}

type DiscordConfig struct {
	PublicKey    string        `yaml:"publicKey"`
	MaxClockSkew time.Duration `yaml:"maxClockSkew"`
}

type WebhookConfig struct {
	Path         string          `yaml:"path"`
	MaxBodyBytes int64           `yaml:"maxBodyBytes"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
	TrustProxy        bool `yaml:"trustProxy"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML config file and returns a Config. An empty path skips
// the file and uses defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MetricsPort:     9090,
		},
		Runtime: RuntimeConfig{Mode: ModeAuto},
		Instance: InstanceConfig{
			CallTimeout: 10 * time.Second,
			MaxAttempts: 3,
		},
		Discord: DiscordConfig{
			MaxClockSkew: 5 * time.Minute,
		},
		Webhook: WebhookConfig{
			Path:         "/interactions",
			MaxBodyBytes: 1 << 20,
			RateLimit:    RateLimitConfig{Enabled: true, RequestsPerMinute: 120, Burst: 20},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// expandEnvVars replaces ${VAR} patterns with environment variable values.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "${" + key + "}"
	})
}

// applyEnvOverrides lets the deployment environment win over the file. These
// are the variables a Lambda function is usually configured with.
func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("INSTANCE_ID"); ok && v != "" {
		cfg.Instance.ID = v
	}
	if v, ok := lookup("AWS_REGION"); ok && v != "" {
		cfg.Instance.Region = v
	}
	if v, ok := lookup("DISCORD_PUBLIC_KEY"); ok && v != "" {
		cfg.Discord.PublicKey = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.Logging.Level = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	return nil
}
