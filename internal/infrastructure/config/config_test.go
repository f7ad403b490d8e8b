package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
broker:
  host: "mqtt.example.com"
  port: 8883
  tls: true
  client_id: "test-client"
auth:
  username: "sensor"
  password: "hunter2"
qos: 2
engine: "paho"
reconnect:
  enabled: true
  initial_delay: 2
  max_delay: 30
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Broker.Host != "mqtt.example.com" {
		t.Errorf("Broker.Host = %q, want %q", cfg.Broker.Host, "mqtt.example.com")
	}

	if cfg.Broker.Port != 8883 || !cfg.Broker.TLS {
		t.Errorf("Broker = %+v, want port 8883 with TLS", cfg.Broker)
	}

	if cfg.QoS != 2 {
		t.Errorf("QoS = %d, want 2", cfg.QoS)
	}

	if !cfg.Reconnect.Enabled || cfg.Reconnect.InitialDelay != 2 {
		t.Errorf("Reconnect = %+v, want enabled with initial_delay 2", cfg.Reconnect)
	}

	// Unset keys keep their defaults.
	if cfg.Timeouts.Connect != 10 {
		t.Errorf("Timeouts.Connect = %d, want default 10", cfg.Timeouts.Connect)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
broker:
  host: ""
qos: 1
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty broker.host, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing broker host",
			mutate:  func(c *Config) { c.Broker.Host = "" },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.Broker.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.Broker.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "negative keepalive",
			mutate:  func(c *Config) { c.Broker.Keepalive = -1 },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "unknown engine",
			mutate:  func(c *Config) { c.Engine = "emqx" },
			wantErr: true,
		},
		{
			name:    "mosquitto engine accepted",
			mutate:  func(c *Config) { c.Engine = EngineMosquitto },
			wantErr: false,
		},
		{
			name:    "zero initial delay",
			mutate:  func(c *Config) { c.Reconnect.InitialDelay = 0 },
			wantErr: true,
		},
		{
			name: "max delay below initial",
			mutate: func(c *Config) {
				c.Reconnect.InitialDelay = 10
				c.Reconnect.MaxDelay = 5
			},
			wantErr: true,
		},
		{
			name:    "zero connect timeout",
			mutate:  func(c *Config) { c.Timeouts.Connect = 0 },
			wantErr: true,
		},
		{
			name:    "zero loop timeout",
			mutate:  func(c *Config) { c.Timeouts.Loop = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetDurations(t *testing.T) {
	cfg := &Config{
		Broker: BrokerConfig{Keepalive: 30},
		Reconnect: ReconnectConfig{
			InitialDelay: 2,
			MaxDelay:     45,
		},
		Timeouts: TimeoutConfig{
			Connect: 15,
			Loop:    250,
		},
	}

	if got := cfg.GetKeepalive().Seconds(); got != 30 {
		t.Errorf("GetKeepalive() = %v, want 30s", got)
	}

	if got := cfg.GetConnectTimeout().Seconds(); got != 15 {
		t.Errorf("GetConnectTimeout() = %v, want 15s", got)
	}

	if got := cfg.GetLoopTimeout().Milliseconds(); got != 250 {
		t.Errorf("GetLoopTimeout() = %v, want 250ms", got)
	}

	if got := cfg.GetInitialDelay().Seconds(); got != 2 {
		t.Errorf("GetInitialDelay() = %v, want 2s", got)
	}

	if got := cfg.GetMaxDelay().Seconds(); got != 45 {
		t.Errorf("GetMaxDelay() = %v, want 45s", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("MOSQ_BROKER_HOST", "mqtt.example.com")
	t.Setenv("MOSQ_BROKER_PORT", "8883")
	t.Setenv("MOSQ_BROKER_CLIENT_ID", "env-client")
	t.Setenv("MOSQ_AUTH_USERNAME", "testuser")
	t.Setenv("MOSQ_AUTH_PASSWORD", "testpass")
	t.Setenv("MOSQ_ENGINE", "mosquitto")
	t.Setenv("MOSQ_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.Broker.Host != "mqtt.example.com" {
		t.Errorf("Broker.Host = %q, want %q", cfg.Broker.Host, "mqtt.example.com")
	}

	if cfg.Broker.Port != 8883 {
		t.Errorf("Broker.Port = %d, want 8883", cfg.Broker.Port)
	}

	if cfg.Broker.ClientID != "env-client" {
		t.Errorf("Broker.ClientID = %q, want %q", cfg.Broker.ClientID, "env-client")
	}

	if cfg.Auth.Username != "testuser" {
		t.Errorf("Auth.Username = %q, want %q", cfg.Auth.Username, "testuser")
	}

	if cfg.Auth.Password != "testpass" {
		t.Errorf("Auth.Password = %q, want %q", cfg.Auth.Password, "testpass")
	}

	if cfg.Engine != EngineMosquitto {
		t.Errorf("Engine = %q, want %q", cfg.Engine, EngineMosquitto)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("MOSQ_BROKER_PORT", "not-a-number")

	applyEnvOverrides(cfg)

	if cfg.Broker.Port != 1883 {
		t.Errorf("Broker.Port = %d, want default 1883", cfg.Broker.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Broker.Host == "" {
		t.Error("defaultConfig should have non-empty Broker.Host")
	}

	if cfg.Broker.Port != 1883 {
		t.Errorf("defaultConfig Broker.Port = %d, want 1883", cfg.Broker.Port)
	}

	if cfg.Engine != EnginePaho {
		t.Errorf("defaultConfig Engine = %q, want %q", cfg.Engine, EnginePaho)
	}

	if cfg.Reconnect.Enabled {
		t.Error("defaultConfig should leave reconnection disabled")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig does not validate: %v", err)
	}
}
