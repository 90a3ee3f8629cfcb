package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	MQTT     MQTTConfig `mapstructure:"mqtt"`

	ControlConfig ControlConfig `mapstructure:"control"`
	BatteryConfig BatteryConfig `mapstructure:"battery"`
	GridConfig    GridConfig    `mapstructure:"grid"`
	StateConfig   StateConfig   `mapstructure:"state"`
	InfluxConfig  InfluxConfig  `mapstructure:"influx"`
	SimConfig     SimConfig     `mapstructure:"sim"`
	Port          uint          `mapstructure:"port"`
	HttpLog       bool          `mapstructure:"http_log"`
}

type ControlConfig struct {
	TickIntervalMillis uint32  `mapstructure:"tick_interval_millis"`
	MinPowerPercent    float64 `mapstructure:"min_power_percent"`
	TurnRate           float64 `mapstructure:"turn_rate"`
	AxisA              string  `mapstructure:"axis_a"`
	AxisB              string  `mapstructure:"axis_b"`
	AutoOverride       bool    `mapstructure:"auto_override"`
}

type BatteryConfig struct {
	Enable          bool `mapstructure:"enable"`
	DockedCharging  bool `mapstructure:"docked_charging"`
	KeepOnDischarge bool `mapstructure:"keep_on_discharge"`
}

type GridConfig struct {
	SizeClass string `mapstructure:"size_class"`
}

type StateConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type InfluxConfig struct {
	URL    string `mapstructure:"url"`
	Token  string `mapstructure:"token"`
	Org    string `mapstructure:"org"`
	Bucket string `mapstructure:"bucket"`
}

type SimConfig struct {
	PanelCount         int     `mapstructure:"panel_count"`
	PanelMaxOutputWatt float64 `mapstructure:"panel_max_output_watt"`
	LocalCellCount     int     `mapstructure:"local_cell_count"`
	DockedCellCount    int     `mapstructure:"docked_cell_count"`
	SunDriftRadPerSec  float64 `mapstructure:"sun_drift_rad_per_sec"`
	BaseLoadWatt       float64 `mapstructure:"base_load_watt"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

// state backends
const (
	StateBackendFile   = "file"
	StateBackendSQLite = "sqlite"
)

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
