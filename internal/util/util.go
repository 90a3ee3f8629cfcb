package util

import (
	"github.com/nickwest/sunchaser/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "sunchaser",
		},
		ControlConfig: config.ControlConfig{
			TickIntervalMillis: 2000,
			MinPowerPercent:    90,
			TurnRate:           0.5,
			AxisA:              "pitch",
			AxisB:              "yaw",
			AutoOverride:       true,
		},
		BatteryConfig: config.BatteryConfig{
			Enable:          true,
			DockedCharging:  true,
			KeepOnDischarge: false,
		},
		GridConfig: config.GridConfig{
			SizeClass: "large",
		},
		StateConfig: config.StateConfig{
			Backend: config.StateBackendFile,
		},
		Port: 8080,
	}
}
