package domain

import "fmt"

// ControlRequest

type ControlRequest interface {
	ActorRequest
	ControlCommand() string
}

type ControlRequestMixIn struct {
	ActorRequestMixIn
}

func (r ControlRequestMixIn) ControlCommand() string {
	return fmt.Sprintf("%T", r)
}

// runtime toggles, switchable over MQTT

type BatteryManagementRequest struct {
	ControlRequestMixIn
	Enable bool
}

type DockedChargingRequest struct {
	ControlRequestMixIn
	Enable bool
}

type KeepOnDischargeRequest struct {
	ControlRequestMixIn
	Enable bool
}

type SetMinPowerPercentRequest struct {
	ControlRequestMixIn
	Percent float64
}

// ensure interface compliance
var _ ControlRequest = (*BatteryManagementRequest)(nil)
