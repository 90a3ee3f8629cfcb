package domain

import "fmt"

// sensor ids
const (
	SENSOR_ID_BRIDGE_STATE        = "bridge_state"
	SENSOR_ID_ARRAY_POWER         = "array_power"
	SENSOR_ID_ARRAY_MAX_POWER     = "array_max_power"
	SENSOR_ID_TARGET_POWER        = "target_power"
	SENSOR_ID_ALIGNMENT_PHASE     = "alignment_phase"
	SENSOR_ID_ACTIVE_AXIS         = "active_axis"
	SENSOR_ID_LOCAL_STORED_ENERGY = "local_stored_energy"
	SENSOR_ID_LOCAL_INPUT_POWER   = "local_input_power"
	SENSOR_ID_LOCAL_OUTPUT_POWER  = "local_output_power"
	SENSOR_ID_DOCKED_INPUT_POWER  = "docked_input_power"
	SENSOR_ID_LOCAL_NEED_CHARGE   = "local_need_charge"
	SENSOR_ID_DOCKED_NEED_CHARGE  = "docked_need_charge"
	SENSOR_ID_ROUTER_LAST_ACTION  = "router_last_action"
)

// switch ids
const (
	SWITCH_ID_BATTERY_MANAGEMENT = "battery_management"
	SWITCH_ID_DOCKED_CHARGING    = "docked_charging"
	SWITCH_ID_KEEP_ON_DISCHARGE  = "keep_on_discharge"
)

// input number ids
const (
	INPUT_NUMBER_ID_MIN_POWER_PERCENT = "min_power_percent"
)

type SensorUpdateEventMixIn struct {
	Id string
}

type SensorUpdateEvent interface {
	SensorUpdateEvent() string
	SensorId() string
}

func (e SensorUpdateEventMixIn) SensorUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e SensorUpdateEventMixIn) SensorId() string {
	return e.Id
}

type FloatSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value    float64
	Decimals uint
}

type BinarySensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

type SwitchSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

type TextSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value string
}

type BridgeStateUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

type InputNumberSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value    float64
	Decimals uint
}
