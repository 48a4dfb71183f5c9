package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// TLSConfig enables a TLS listener for the session endpoint.
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

// Config holds the daemon runtime settings.
type Config struct {
	Host           string
	Port           int
	CORSOrigins    []string
	AuthToken      string
	MessageHistory int
	IdleTimeout    time.Duration
	TLS            TLSConfig
}

// Default returns the daemon defaults: localhost, the conventional liaison
// port, no auth, no TLS, no idle timeout.
func Default() Config {
	return Config{
		Host:           "localhost",
		Port:           8001,
		MessageHistory: 256,
	}
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type fileConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	CORSOrigins    []string `toml:"cors_origins"`
	AuthToken      string   `toml:"auth_token"`
	MessageHistory int      `toml:"message_history"`
	IdleTimeout    string   `toml:"idle_timeout"`
	TLSEnabled     bool     `toml:"tls_enabled"`
	TLSCertFile    string   `toml:"tls_cert_file"`
	TLSKeyFile     string   `toml:"tls_key_file"`
}

// Load reads a TOML config file over the defaults. Absent keys keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load liaison config: %w", err)
	}

	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = raw.CORSOrigins
	}
	if meta.IsDefined("auth_token") {
		cfg.AuthToken = strings.TrimSpace(raw.AuthToken)
	}
	if meta.IsDefined("message_history") {
		cfg.MessageHistory = raw.MessageHistory
	}
	if meta.IsDefined("idle_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.IdleTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse idle_timeout: %w", err)
		}
		cfg.IdleTimeout = d
	}
	if meta.IsDefined("tls_enabled") {
		cfg.TLS.Enabled = raw.TLSEnabled
	}
	if meta.IsDefined("tls_cert_file") {
		cfg.TLS.CertFile = strings.TrimSpace(raw.TLSCertFile)
	}
	if meta.IsDefined("tls_key_file") {
		cfg.TLS.KeyFile = strings.TrimSpace(raw.TLSKeyFile)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces settings the daemon cannot start without.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("liaison config missing host")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("liaison config port out of range: %d", cfg.Port)
	}
	if cfg.MessageHistory < 0 {
		return fmt.Errorf("liaison config message_history must not be negative")
	}
	if cfg.IdleTimeout < 0 {
		return fmt.Errorf("liaison config idle_timeout must not be negative")
	}
	if cfg.TLS.Enabled {
		if strings.TrimSpace(cfg.TLS.CertFile) == "" {
			return fmt.Errorf("liaison config tls_cert_file required")
		}
		if strings.TrimSpace(cfg.TLS.KeyFile) == "" {
			return fmt.Errorf("liaison config tls_key_file required")
		}
	}
	return nil
}
