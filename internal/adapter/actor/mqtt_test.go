package actor

import (
	"testing"

	"github.com/nickwest/sunchaser/internal/core/domain"
	"github.com/nickwest/sunchaser/internal/mqtt"
	"github.com/nickwest/sunchaser/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testMQTTActorWithClient(t *testing.T) *MQTTActor {
	cfg := util.LoadTestConfig()
	act := NewTestMQTTActor(&cfg, zap.Must(zap.NewDevelopment()))
	act.client = mqtt.CreateMQTTClient(&cfg, mqtt.OptsFromConfig(&cfg), nil, nil)
	return act
}

func TestSensorMessageMapping(t *testing.T) {

	require := require.New(t)

	act := testMQTTActorWithClient(t)

	msg := act.sensorMessage(domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: domain.SENSOR_ID_ARRAY_POWER},
		Value:                  95.5,
		Decimals:               2,
	})
	require.NotNil(msg)
	require.Equal("sunchaser/sensor/array_power/state", msg.topic)
	require.Equal("95.50", msg.message)
	require.False(msg.retain)

	msg = act.sensorMessage(domain.TextSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: domain.SENSOR_ID_ALIGNMENT_PHASE},
		Value:                  "climb",
	})
	require.Equal("sunchaser/sensor/alignment_phase/state", msg.topic)
	require.Equal("climb", msg.message)

	msg = act.sensorMessage(domain.BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: domain.SENSOR_ID_LOCAL_NEED_CHARGE},
		Value:                  true,
	})
	require.Equal("sunchaser/binary_sensor/local_need_charge/state", msg.topic)
	require.Equal(mqtt.MQTT_PAYLOAD_ON, msg.message)
}

func TestSensorMessageRetainsControlState(t *testing.T) {

	require := require.New(t)

	act := testMQTTActorWithClient(t)

	msg := act.sensorMessage(domain.SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: domain.SWITCH_ID_DOCKED_CHARGING},
		Value:                  false,
	})
	require.Equal("sunchaser/switch/docked_charging/state", msg.topic)
	require.Equal(mqtt.MQTT_PAYLOAD_OFF, msg.message)
	require.True(msg.retain)

	msg = act.sensorMessage(domain.InputNumberSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: domain.INPUT_NUMBER_ID_MIN_POWER_PERCENT},
		Value:                  90,
		Decimals:               0,
	})
	require.Equal("sunchaser/number/min_power_percent/state", msg.topic)
	require.Equal("90", msg.message)
	require.True(msg.retain)
}

func TestSensorMessageBridgeStateAndUnknown(t *testing.T) {

	assert := assert.New(t)

	act := testMQTTActorWithClient(t)

	msg := act.sensorMessage(domain.BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: domain.SENSOR_ID_BRIDGE_STATE},
		Value:                  true,
	})
	assert.Equal("sunchaser/bridge/state", msg.topic)
	assert.Equal(mqtt.MQTT_PAYLOAD_ONLINE, msg.message)

	assert.Nil(act.sensorMessage(struct{}{}))
}
