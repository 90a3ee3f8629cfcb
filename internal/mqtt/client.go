package mqtt

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"time"

	"github.com/nickwest/sunchaser/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
	MQTT_PAYLOAD_ON      = "on"
	MQTT_PAYLOAD_OFF     = "off"
)

// EntityKind is the Home Assistant entity family a topic belongs to.
// Sensors and binary sensors are read-only; switches and numbers also
// carry an inbound command topic.
type EntityKind string

const (
	KindSensor       EntityKind = "sensor"
	KindBinarySensor EntityKind = "binary_sensor"
	KindSwitch       EntityKind = "switch"
	KindInputNumber  EntityKind = "number"
)

// commandVerb is the last topic segment HA publishes commands on.
// Numbers use "set", everything else "command".
func (k EntityKind) commandVerb() string {
	if k == KindInputNumber {
		return "set"
	}
	return "command"
}

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("sunchaser_%d", rand.IntN(1000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client: mqtt.NewClient(opts),
		cfg:    cfg.MQTT,
		routes: []commandRoute{
			{kind: KindSwitch, matcher: commandExtractor(cfg.MQTT.BaseTopic, KindSwitch)},
			{kind: KindInputNumber, matcher: commandExtractor(cfg.MQTT.BaseTopic, KindInputNumber),
				accept: isDecimalPayload},
		},
	}
}

type MQTTClient struct {
	client mqtt.Client
	cfg    config.MQTTConfig
	routes []commandRoute
}

// commandRoute binds an inbound topic pattern to the entity kind it
// commands. accept, when set, vets the payload before the command is
// accepted.
type commandRoute struct {
	kind    EntityKind
	matcher *regexp.Regexp
	accept  func(payload string) bool
}

type ParsedMQTTCommand struct {
	DeviceId string
	Command  string
	Payload  string
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) StateTopic(kind EntityKind, id string) string {
	return fmt.Sprintf("%s/%s/%s/state", c.baseTopic(), kind, id)
}

func (c *MQTTClient) CommandTopic(kind EntityKind, id string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.baseTopic(), kind, id, kind.commandVerb())
}

// ParseMQTTCommand classifies an inbound message against the command
// routes. A topic matching no route is dropped by the caller, not an
// error worth surfacing.
func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	payload := string(msg.Payload())
	for _, route := range c.routes {
		matches := route.matcher.FindStringSubmatch(msg.Topic())
		if len(matches) != 2 {
			continue
		}
		if route.accept != nil && !route.accept(payload) {
			return nil, fmt.Errorf("bad %s payload %q", route.kind, payload)
		}
		return &ParsedMQTTCommand{
			DeviceId: matches[1],
			Command:  string(route.kind),
			Payload:  payload,
		}, nil
	}
	return nil, errors.New("not a command topic")
}

func isDecimalPayload(payload string) bool {
	_, err := strconv.ParseFloat(payload, 64)
	return err == nil
}

// awaitToken turns paho's token API into the continuation style the
// actors consume. The continuation runs off the caller's goroutine.
func awaitToken(token mqtt.Token, op string, continuation func(error), timeout time.Duration) {
	go func() {
		if !token.WaitTimeout(timeout) {
			continuation(fmt.Errorf("MQTT %s timed out", op))
			return
		}
		continuation(token.Error())
	}()
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	awaitToken(c.client.Publish(topic, qos, retain, payload), "publish", continuation, timeout)
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	awaitToken(c.client.Subscribe(topic, qos, handler), "subscribe", continuation, timeout)
}

func (c *MQTTClient) SubscribeToCommandTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.Subscribe(fmt.Sprintf("%s/#", c.baseTopic()), 1, handler, continuation, timeout)
}

func (c *MQTTClient) Unsubscribe(topic string, continuation func(error), timeout time.Duration) {
	awaitToken(c.client.Unsubscribe(topic), "unsubscribe", continuation, timeout)
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	awaitToken(c.client.Connect(), "connect", continuation, timeout)
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func commandExtractor(baseTopic string, kind EntityKind) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/%s/([a-zA-Z0-9_]+)/%s$",
		regexp.QuoteMeta(baseTopic), kind, kind.commandVerb()))
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}
