package paho

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	// defaultConnectTimeout bounds the paho-side dial and handshake.
	defaultConnectTimeout = 10 * time.Second

	// disconnectQuiesce is how long a clean disconnect waits for
	// in-flight work, in milliseconds.
	disconnectQuiesce = 250

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Config carries the session identity and transport settings that are
// fixed for the lifetime of the engine. Per-connection parameters (host,
// port, keepalive, bind address) arrive with each Connect call.
type Config struct {
	// ClientID identifies the session to the broker. Empty means a
	// random id is generated.
	ClientID string

	// Username and Password are sent when Username is non-empty.
	Username string
	Password string

	// TLS switches the broker URL scheme to ssl and applies TLSConfig
	// (or a TLS 1.2+ default when nil).
	TLS       bool
	TLSConfig *tls.Config
}

// buildClientOptions creates paho options for one connection attempt.
//
// Auto-reconnect and connect-retry stay off: loss handling belongs to
// whoever drives the engine, and paho silently redialing underneath it
// would fork the connection state.
func buildClientOptions(cfg Config, host string, port int, keepalive time.Duration, bindAddress string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, host, port))

	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(keepalive)

	if bindAddress != "" {
		opts.SetDialer(&net.Dialer{
			Timeout:   defaultConnectTimeout,
			LocalAddr: &net.TCPAddr{IP: net.ParseIP(bindAddress)},
		})
	}

	if cfg.TLS {
		tlsConfig := cfg.TLSConfig
		if tlsConfig == nil {
			tlsConfig = &tls.Config{MinVersion: tlsMinVersion}
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts
}

// withClientID fills in a generated client id when the config leaves it
// empty.
func withClientID(cfg Config) Config {
	if cfg.ClientID == "" {
		cfg.ClientID = "mosq-" + uuid.NewString()
	}
	return cfg
}
