package domain

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_GRID         = "grid"
	ACTOR_ID_CONTROL_LOOP = "controlloop"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

// GridInfo is the device census read once at startup. A grid without
// actuators or without solar sources is fatal.
type GridInfo struct {
	ActuatorCount   int
	SolarCount      int
	LocalCellCount  int
	DockedCellCount int
}

type GetGridInfoRequest struct {
	ActorRequestMixIn
}

type GetGridInfoResponse struct {
	ActorResponseMixIn
	Info *GridInfo
}

type GetGridSnapshotRequest struct {
	ActorRequestMixIn
}

type GetGridSnapshotResponse struct {
	ActorResponseMixIn
	Snapshot *GridSnapshot
}

type ApplyControlPlanRequest struct {
	ActorRequestMixIn
	Plan ControlPlan
}

type ApplyControlPlanResponse struct {
	ActorResponseMixIn
	AppliedActions int
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors      []GenericSensor
	Switches     []GenericSwitch
	InputNumbers []GenericInputNumber
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
