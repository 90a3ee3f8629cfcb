package mqtt

import (
	"testing"

	"github.com/nickwest/sunchaser/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMessage struct {
	topic   string
	payload string
}

func (m stubMessage) Duplicate() bool   { return false }
func (m stubMessage) Qos() byte         { return 1 }
func (m stubMessage) Retained() bool    { return false }
func (m stubMessage) Topic() string     { return m.topic }
func (m stubMessage) MessageID() uint16 { return 0 }
func (m stubMessage) Payload() []byte   { return []byte(m.payload) }
func (m stubMessage) Ack()              {}

func testClient(baseTopic string) *MQTTClient {
	cfg := &config.Config{}
	cfg.MQTT.BaseTopic = baseTopic
	return CreateMQTTClient(cfg, OptsFromConfig(cfg), nil, nil)
}

func TestSwitchCommandParse(t *testing.T) {

	assert := assert.New(t)

	r := commandExtractor("loremTopic", KindSwitch)
	matches := r.FindStringSubmatch("loremTopic/switch/my_device/command")

	require.Len(t, matches, 2)
	assert.Equal(matches[1], "my_device", "device extract")
}

func TestSwitchCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	r := commandExtractor("loremTopic", KindSwitch)
	matches := r.FindStringSubmatch("loremTopic/switch/my_device/state")

	assert.Nil(matches, "no matches")
}

func TestInputNumberCommandParse(t *testing.T) {

	assert := assert.New(t)

	r := commandExtractor("loremTopic", KindInputNumber)
	matches := r.FindStringSubmatch("loremTopic/number/min_power_percent/set")

	require.Len(t, matches, 2)
	assert.Equal(matches[1], "min_power_percent", "number_id extract")
}

func TestInputNumberCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	r := commandExtractor("loremTopic", KindInputNumber)
	matches := r.FindStringSubmatch("loremTopic/switch/min_power_percent/command")

	assert.Nil(matches, "no matches")
}

func TestParseMQTTCommandRoutes(t *testing.T) {

	require := require.New(t)

	client := testClient("loremTopic")

	cmd, err := client.ParseMQTTCommand(stubMessage{
		topic:   "loremTopic/switch/docked_charging/command",
		payload: "on",
	})
	require.NoError(err)
	require.Equal("docked_charging", cmd.DeviceId)
	require.Equal("switch", cmd.Command)
	require.Equal("on", cmd.Payload)

	cmd, err = client.ParseMQTTCommand(stubMessage{
		topic:   "loremTopic/number/min_power_percent/set",
		payload: "85.5",
	})
	require.NoError(err)
	require.Equal("min_power_percent", cmd.DeviceId)
	require.Equal("number", cmd.Command)
}

func TestParseMQTTCommandRejects(t *testing.T) {

	require := require.New(t)

	client := testClient("loremTopic")

	// state topics never carry commands
	_, err := client.ParseMQTTCommand(stubMessage{
		topic:   "loremTopic/switch/docked_charging/state",
		payload: "on",
	})
	require.Error(err)

	// a number command must carry a number
	_, err = client.ParseMQTTCommand(stubMessage{
		topic:   "loremTopic/number/min_power_percent/set",
		payload: "lots",
	})
	require.Error(err)
}

func TestStateAndCommandTopics(t *testing.T) {

	assert := assert.New(t)

	client := testClient("sunchaser")

	assert.Equal("sunchaser/sensor/array_power/state", client.StateTopic(KindSensor, "array_power"))
	assert.Equal("sunchaser/binary_sensor/local_need_charge/state", client.StateTopic(KindBinarySensor, "local_need_charge"))
	assert.Equal("sunchaser/switch/docked_charging/command", client.CommandTopic(KindSwitch, "docked_charging"))
	assert.Equal("sunchaser/number/min_power_percent/set", client.CommandTopic(KindInputNumber, "min_power_percent"))
	assert.Equal("sunchaser/bridge/state", client.BridgeStateTopic())
}
