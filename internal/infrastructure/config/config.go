package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine selection values for Config.Engine.
const (
	EnginePaho      = "paho"
	EngineMosquitto = "mosquitto"
)

// Config is the root configuration structure.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Broker    BrokerConfig    `yaml:"broker"`
	Auth      AuthConfig      `yaml:"auth"`
	QoS       int             `yaml:"qos"`
	Engine    string          `yaml:"engine"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// BrokerConfig contains broker connection details.
type BrokerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	TLS         bool   `yaml:"tls"`
	ClientID    string `yaml:"client_id"`
	BindAddress string `yaml:"bind_address"`
	Keepalive   int    `yaml:"keepalive"` // seconds
}

// AuthConfig contains broker authentication credentials.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ReconnectConfig contains reconnection settings. Delays are seconds.
type ReconnectConfig struct {
	Enabled      bool `yaml:"enabled"`
	InitialDelay int  `yaml:"initial_delay"`
	MaxDelay     int  `yaml:"max_delay"`
	MaxAttempts  int  `yaml:"max_attempts"`
}

// TimeoutConfig contains operation timing settings.
type TimeoutConfig struct {
	Connect int `yaml:"connect"` // seconds
	Loop    int `yaml:"loop"`    // milliseconds
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MOSQ_SECTION_KEY
// For example: MOSQ_BROKER_HOST, MOSQ_AUTH_PASSWORD
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration, with environment overrides
// applied. Used when no config file is given.
func Default() *Config {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	return cfg
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Broker: BrokerConfig{
			Host:      "localhost",
			Port:      1883,
			Keepalive: 60,
		},
		QoS:    1,
		Engine: EnginePaho,
		Reconnect: ReconnectConfig{
			Enabled:      false,
			InitialDelay: 1,
			MaxDelay:     60,
			MaxAttempts:  0,
		},
		Timeouts: TimeoutConfig{
			Connect: 10,
			Loop:    100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MOSQ_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Broker
	if v := os.Getenv("MOSQ_BROKER_HOST"); v != "" {
		cfg.Broker.Host = v
	}
	if v := os.Getenv("MOSQ_BROKER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Broker.Port = port
		}
	}
	if v := os.Getenv("MOSQ_BROKER_CLIENT_ID"); v != "" {
		cfg.Broker.ClientID = v
	}

	// Auth
	if v := os.Getenv("MOSQ_AUTH_USERNAME"); v != "" {
		cfg.Auth.Username = v
	}
	if v := os.Getenv("MOSQ_AUTH_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}

	// Engine
	if v := os.Getenv("MOSQ_ENGINE"); v != "" {
		cfg.Engine = v
	}

	// Logging
	if v := os.Getenv("MOSQ_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Broker.Host == "" {
		errs = append(errs, "broker.host is required")
	}
	if c.Broker.Port < 1 || c.Broker.Port > 65535 {
		errs = append(errs, "broker.port must be between 1 and 65535")
	}
	if c.Broker.Keepalive < 0 {
		errs = append(errs, "broker.keepalive must not be negative")
	}

	if c.QoS < 0 || c.QoS > 2 {
		errs = append(errs, "qos must be 0, 1, or 2")
	}

	if c.Engine != EnginePaho && c.Engine != EngineMosquitto {
		errs = append(errs, "engine must be paho or mosquitto")
	}

	if c.Reconnect.InitialDelay < 1 {
		errs = append(errs, "reconnect.initial_delay must be at least 1 second")
	}
	if c.Reconnect.MaxDelay < c.Reconnect.InitialDelay {
		errs = append(errs, "reconnect.max_delay must not be below reconnect.initial_delay")
	}
	if c.Reconnect.MaxAttempts < 0 {
		errs = append(errs, "reconnect.max_attempts must not be negative")
	}

	if c.Timeouts.Connect < 1 {
		errs = append(errs, "timeouts.connect must be at least 1 second")
	}
	if c.Timeouts.Loop < 1 {
		errs = append(errs, "timeouts.loop must be at least 1 millisecond")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetKeepalive returns the broker keepalive as a Duration.
func (c *Config) GetKeepalive() time.Duration {
	return time.Duration(c.Broker.Keepalive) * time.Second
}

// GetConnectTimeout returns the connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Timeouts.Connect) * time.Second
}

// GetLoopTimeout returns the loop timeout as a Duration.
func (c *Config) GetLoopTimeout() time.Duration {
	return time.Duration(c.Timeouts.Loop) * time.Millisecond
}

// GetInitialDelay returns the first reconnect delay as a Duration.
func (c *Config) GetInitialDelay() time.Duration {
	return time.Duration(c.Reconnect.InitialDelay) * time.Second
}

// GetMaxDelay returns the reconnect delay ceiling as a Duration.
func (c *Config) GetMaxDelay() time.Duration {
	return time.Duration(c.Reconnect.MaxDelay) * time.Second
}
