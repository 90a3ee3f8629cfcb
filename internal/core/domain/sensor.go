package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
)

const (
	STATE_CLASS_MEASUREMENT     = "measurement"
	DEVICE_CLASS_POWER          = "power"
	DEVICE_CLASS_ENERGY_STORAGE = "energy_storage"
	DEVICE_CLASS_CONNECTIVITY   = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC     = "diagnostic"
	INPUT_NUMBER_MODE_BOX       = "box"
	INPUT_NUMBER_MODE_SLIDER    = "slider"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("sunchaser_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "nickwest",
		Model:        "Sunchaser",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Sunchaser %s", md5HashShort(baseTopic)),
	}
}

func GridDevice(baseTopic string, info *GridInfo) Device {
	return Device{
		Id:    fmt.Sprintf("sun_grid_%s", md5HashShort(baseTopic)),
		Model: fmt.Sprintf("Power grid (%d actuators, %d panels)", info.ActuatorCount, info.SolarCount),
		Name:  fmt.Sprintf("Power grid %s", md5HashShort(baseTopic)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func GridSensors(gridDevice Device) []GenericSensor {

	var sensors []GenericSensor

	powerSensor := func(id, name string) GenericSensor {
		return GenericSensor{
			Device:            gridDevice,
			Id:                id,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              name,
			UnitOfMeasurement: "kW",
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_POWER,
			UniqueId:          uniqueId(gridDevice.Id, id),
		}
	}

	sensors = append(sensors, powerSensor(SENSOR_ID_ARRAY_POWER, "Solar array power"))
	sensors = append(sensors, powerSensor(SENSOR_ID_ARRAY_MAX_POWER, "Solar array max power"))
	sensors = append(sensors, powerSensor(SENSOR_ID_TARGET_POWER, "Target power"))
	sensors = append(sensors, powerSensor(SENSOR_ID_LOCAL_INPUT_POWER, "Local storage input power"))
	sensors = append(sensors, powerSensor(SENSOR_ID_LOCAL_OUTPUT_POWER, "Local storage output power"))
	sensors = append(sensors, powerSensor(SENSOR_ID_DOCKED_INPUT_POWER, "Docked storage input power"))

	sensors = append(sensors, GenericSensor{
		Device:            gridDevice,
		Id:                SENSOR_ID_LOCAL_STORED_ENERGY,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Local stored energy",
		UnitOfMeasurement: "kWh",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_ENERGY_STORAGE,
		UniqueId:          uniqueId(gridDevice.Id, SENSOR_ID_LOCAL_STORED_ENERGY),
	})

	sensors = append(sensors, GenericSensor{
		Device:     gridDevice,
		Id:         SENSOR_ID_ALIGNMENT_PHASE,
		SensorType: SENSOR_TYPE_SENSOR,
		Name:       "Alignment phase",
		UniqueId:   uniqueId(gridDevice.Id, SENSOR_ID_ALIGNMENT_PHASE),
		Icon:       "mdi:sun-compass",
	})
	sensors = append(sensors, GenericSensor{
		Device:     gridDevice,
		Id:         SENSOR_ID_ACTIVE_AXIS,
		SensorType: SENSOR_TYPE_SENSOR,
		Name:       "Active rotation axis",
		UniqueId:   uniqueId(gridDevice.Id, SENSOR_ID_ACTIVE_AXIS),
		Icon:       "mdi:axis-z-rotate-clockwise",
	})
	sensors = append(sensors, GenericSensor{
		Device:         gridDevice,
		Id:             SENSOR_ID_ROUTER_LAST_ACTION,
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Charge router last action",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(gridDevice.Id, SENSOR_ID_ROUTER_LAST_ACTION),
		Icon:           "mdi:transmission-tower",
	})

	sensors = append(sensors, GenericSensor{
		Device:     gridDevice,
		Id:         SENSOR_ID_LOCAL_NEED_CHARGE,
		SensorType: SENSOR_TYPE_BINARY,
		Name:       "Local storage needs charge",
		UniqueId:   uniqueId(gridDevice.Id, SENSOR_ID_LOCAL_NEED_CHARGE),
		Icon:       "mdi:battery-alert",
	})
	sensors = append(sensors, GenericSensor{
		Device:     gridDevice,
		Id:         SENSOR_ID_DOCKED_NEED_CHARGE,
		SensorType: SENSOR_TYPE_BINARY,
		Name:       "Docked storage needs charge",
		UniqueId:   uniqueId(gridDevice.Id, SENSOR_ID_DOCKED_NEED_CHARGE),
		Icon:       "mdi:battery-alert-variant-outline",
	})

	return sensors
}

func ControlSwitches(gridDevice Device) []GenericSwitch {

	var switches []GenericSwitch

	switches = append(switches, GenericSwitch{
		Device:   gridDevice,
		Id:       SWITCH_ID_BATTERY_MANAGEMENT,
		Name:     "Battery management",
		UniqueId: uniqueId(gridDevice.Id, SWITCH_ID_BATTERY_MANAGEMENT),
		Icon:     "mdi:battery-sync",
	})
	switches = append(switches, GenericSwitch{
		Device:   gridDevice,
		Id:       SWITCH_ID_DOCKED_CHARGING,
		Name:     "Docked charging",
		UniqueId: uniqueId(gridDevice.Id, SWITCH_ID_DOCKED_CHARGING),
		Icon:     "mdi:battery-charging",
	})
	switches = append(switches, GenericSwitch{
		Device:   gridDevice,
		Id:       SWITCH_ID_KEEP_ON_DISCHARGE,
		Name:     "Keep cells discharging",
		UniqueId: uniqueId(gridDevice.Id, SWITCH_ID_KEEP_ON_DISCHARGE),
		Icon:     "mdi:battery-arrow-up",
	})

	return switches
}

func ControlInputNumbers(gridDevice Device) []GenericInputNumber {

	var inputNumbers []GenericInputNumber

	inputNumbers = append(inputNumbers, GenericInputNumber{
		Device:       gridDevice,
		Id:           INPUT_NUMBER_ID_MIN_POWER_PERCENT,
		Name:         "Min power percent",
		UniqueId:     uniqueId(gridDevice.Id, INPUT_NUMBER_ID_MIN_POWER_PERCENT),
		Icon:         "mdi:ticket-percent",
		Max:          100,
		Min:          0,
		Step:         5,
		Mode:         INPUT_NUMBER_MODE_SLIDER,
		InitialValue: 90,
	})

	return inputNumbers
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
