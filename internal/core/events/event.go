package events

import (
	. "github.com/nickwest/sunchaser/internal/core/domain"
)

// SnapshotToUpdateEvents maps a sampled grid snapshot to the sensor
// updates published every tick.
func SnapshotToUpdateEvents(snapshot *GridSnapshot, targetPowerWatt float64) []any {
	var events []any

	// Array Power
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_ARRAY_POWER,
		},
		Value:    snapshot.ArrayCurrentOutputWatt() / 1000,
		Decimals: 2,
	})
	// Array Max Power
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_ARRAY_MAX_POWER,
		},
		Value:    snapshot.ArrayMaxOutputWatt() / 1000,
		Decimals: 2,
	})
	// Target Power
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_TARGET_POWER,
		},
		Value:    targetPowerWatt / 1000,
		Decimals: 2,
	})

	var storedWh, inputWatt, outputWatt float64
	for _, cell := range snapshot.LocalCells {
		storedWh += cell.Reading.CurrentStoredWattHour
		inputWatt += cell.Reading.CurrentInputWatt
		outputWatt += cell.Reading.CurrentOutputWatt
	}
	// Local Stored Energy
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_LOCAL_STORED_ENERGY,
		},
		Value:    storedWh / 1000,
		Decimals: 3,
	})
	// Local Input Power
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_LOCAL_INPUT_POWER,
		},
		Value:    inputWatt / 1000,
		Decimals: 2,
	})
	// Local Output Power
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_LOCAL_OUTPUT_POWER,
		},
		Value:    outputWatt / 1000,
		Decimals: 2,
	})

	var dockedInputWatt float64
	for _, cell := range snapshot.DockedCells {
		dockedInputWatt += cell.Reading.CurrentInputWatt
	}
	// Docked Input Power
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_DOCKED_INPUT_POWER,
		},
		Value:    dockedInputWatt / 1000,
		Decimals: 2,
	})

	return events
}

// BudgetToUpdateEvents maps the router's power budget to the two
// need-charge binary sensors.
func BudgetToUpdateEvents(budget PowerBudget) []any {
	var events []any

	events = append(events, BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_LOCAL_NEED_CHARGE,
		},
		Value: budget.LocalNeedCharge,
	})
	events = append(events, BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_DOCKED_NEED_CHARGE,
		},
		Value: budget.DockedNeedCharge,
	})

	return events
}

// AlignmentToUpdateEvents maps one alignment tick to its phase and
// active-axis text sensors.
func AlignmentToUpdateEvents(result AlignmentTickResult) []any {
	var events []any

	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_ALIGNMENT_PHASE,
		},
		Value: result.Phase,
	})
	axis := "none"
	if result.Rotate != nil {
		axis = result.Rotate.Axis.String()
	}
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_ACTIVE_AXIS,
		},
		Value: axis,
	})

	return events
}

// RouteToUpdateEvents maps the router's decision to the last-action
// text sensor.
func RouteToUpdateEvents(result ChargeRouteResult) []any {
	return []any{
		TextSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_ROUTER_LAST_ACTION,
			},
			Value: result.Reason,
		},
	}
}

// SwitchToUpdateEvent reflects a toggled control switch back to its
// sensor topic.
func SwitchToUpdateEvent(switchId string, value bool) any {
	return SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: switchId,
		},
		Value: value,
	}
}

// MinPowerPercentToUpdateEvent reflects the min-power input number back
// to its sensor topic.
func MinPowerPercentToUpdateEvent(percent float64) any {
	return InputNumberSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: INPUT_NUMBER_ID_MIN_POWER_PERCENT,
		},
		Value:    percent,
		Decimals: 0,
	}
}
