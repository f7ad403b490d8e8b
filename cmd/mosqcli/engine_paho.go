//go:build !mosquitto

package main

import (
	"fmt"

	enginepaho "github.com/nerrad567/gray-logic-mosq/engine/paho"
	"github.com/nerrad567/gray-logic-mosq/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-mosq/mqtt"
)

// buildEngine selects the pure-Go engine. The cgo libmosquitto engine
// needs the mosquitto build tag and the C library installed.
func buildEngine(cfg *config.Config) (mqtt.Engine, error) {
	if cfg.Engine == config.EngineMosquitto {
		return nil, fmt.Errorf("engine %q requires building with -tags mosquitto", cfg.Engine)
	}
	return enginepaho.New(enginepaho.Config{
		ClientID: cfg.Broker.ClientID,
		Username: cfg.Auth.Username,
		Password: cfg.Auth.Password,
		TLS:      cfg.Broker.TLS,
	}), nil
}
