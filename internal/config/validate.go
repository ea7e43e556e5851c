package config

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Validate checks the config for errors.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if cfg.Server.MetricsPort < 0 || cfg.Server.MetricsPort > 65535 {
		errs = append(errs, "server.metricsPort must be between 0 and 65535")
	}

	validModes := map[string]bool{ModeAuto: true, ModeServer: true, ModeLambda: true}
	if !validModes[cfg.Runtime.Mode] {
		errs = append(errs, fmt.Sprintf("runtime.mode must be one of: auto, server, lambda (got %q)", cfg.Runtime.Mode))
	}

	if strings.TrimSpace(cfg.Instance.ID) == "" {
		errs = append(errs, "instance.id is required (or set INSTANCE_ID)")
	}
	if cfg.Instance.CallTimeout < 0 {
		errs = append(errs, "instance.callTimeout must not be negative")
	}
	if cfg.Instance.MaxAttempts < 0 {
		errs = append(errs, "instance.maxAttempts must not be negative")
	}

	if key := strings.TrimSpace(cfg.Discord.PublicKey); key != "" {
		raw, err := hex.DecodeString(key)
		switch {
		case err != nil:
			errs = append(errs, "discord.publicKey must be hex encoded")
		case len(raw) != 32:
			errs = append(errs, fmt.Sprintf("discord.publicKey must be 32 bytes (got %d)", len(raw)))
		}
	}
	if cfg.Discord.MaxClockSkew < 0 {
		errs = append(errs, "discord.maxClockSkew must not be negative")
	}

	if !strings.HasPrefix(cfg.Webhook.Path, "/") {
		errs = append(errs, fmt.Sprintf("webhook.path must start with / (got %q)", cfg.Webhook.Path))
	}
	if cfg.Webhook.MaxBodyBytes <= 0 {
		errs = append(errs, "webhook.maxBodyBytes must be positive")
	}
	if cfg.Webhook.RateLimit.Enabled && cfg.Webhook.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, "webhook.rateLimit.requestsPerMinute must be positive when rate limiting is enabled")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level must be debug, info, warn, or error (got %q)", cfg.Logging.Level))
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "text" {
		errs = append(errs, fmt.Sprintf("logging.format must be json or text (got %q)", cfg.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
