package recorder

import (
	"github.com/nickwest/sunchaser/internal/config"
	"github.com/nickwest/sunchaser/internal/core/domain"

	"github.com/asynkron/protoactor-go/eventstream"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	"go.uber.org/zap"
)

// InfluxRecorder mirrors sensor update events into an InfluxDB bucket.
// Writes are batched and non-blocking, a recorder failure never stalls
// the control loop.
type InfluxRecorder struct {
	client       influxdb2.Client
	writeAPI     influxdb2_api.WriteAPI
	subscription *eventstream.Subscription
	eventStream  *eventstream.EventStream
	logger       *zap.Logger
}

func NewInfluxRecorder(cfg config.InfluxConfig, logger *zap.Logger) *InfluxRecorder {
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().SetBatchSize(100).SetFlushInterval(1000))
	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	rec := &InfluxRecorder{
		client:   client,
		writeAPI: writeAPI,
		logger:   logger.Named("influx"),
	}

	go func() {
		for err := range writeAPI.Errors() {
			rec.logger.Warn("influx write error", zap.Error(err))
		}
	}()

	return rec
}

// Subscribe starts mirroring events from the given stream. Only numeric
// and binary sensor updates are recorded, text sensors are skipped.
func (r *InfluxRecorder) Subscribe(stream *eventstream.EventStream) {
	r.eventStream = stream
	r.subscription = stream.Subscribe(func(value any) {
		event, ok := value.(domain.SensorUpdateEvent)
		if !ok {
			return
		}
		r.record(event)
	})
}

func (r *InfluxRecorder) record(event domain.SensorUpdateEvent) {
	var fieldValue any
	switch ev := event.(type) {
	case domain.FloatSensorUpdateEvent:
		fieldValue = ev.Value
	case domain.InputNumberSensorUpdateEvent:
		fieldValue = ev.Value
	case domain.BinarySensorUpdateEvent:
		fieldValue = ev.Value
	case domain.SwitchSensorUpdateEvent:
		fieldValue = ev.Value
	case domain.BridgeStateUpdateEvent:
		fieldValue = ev.Value
	default:
		return
	}
	point := influxdb2.NewPointWithMeasurement("sensor").
		AddTag("id", event.SensorId()).
		AddField("value", fieldValue)
	r.writeAPI.WritePoint(point)
}

func (r *InfluxRecorder) Close() {
	if r.subscription != nil && r.eventStream != nil {
		r.eventStream.Unsubscribe(r.subscription)
	}
	r.writeAPI.Flush()
	r.client.Close()
}
