//go:build mosquitto

package main

import (
	enginemosq "github.com/nerrad567/gray-logic-mosq/engine/mosquitto"
	enginepaho "github.com/nerrad567/gray-logic-mosq/engine/paho"
	"github.com/nerrad567/gray-logic-mosq/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-mosq/mqtt"
)

// buildEngine honours the configured engine; libmosquitto is available
// under this build tag.
func buildEngine(cfg *config.Config) (mqtt.Engine, error) {
	if cfg.Engine == config.EngineMosquitto {
		return enginemosq.New(enginemosq.Config{
			ClientID:     cfg.Broker.ClientID,
			Username:     cfg.Auth.Username,
			Password:     cfg.Auth.Password,
			CleanSession: true,
		})
	}
	return enginepaho.New(enginepaho.Config{
		ClientID: cfg.Broker.ClientID,
		Username: cfg.Auth.Username,
		Password: cfg.Auth.Password,
		TLS:      cfg.Broker.TLS,
	}), nil
}
