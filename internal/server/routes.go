package server

import (
	"net/http"
	"time"

	"github.com/nickwest/sunchaser/internal/core/domain"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/events", s.EventStreamHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

type wsSensorMessage struct {
	Id    string `json:"id"`
	Value any    `json:"value"`
}

// EventStreamHandler streams sensor updates over a websocket, one JSON
// message per update.
func (s *Server) EventStreamHandler(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	outbound := make(chan wsSensorMessage, 64)
	sub := s.eventStream.Subscribe(func(value any) {
		event, ok := value.(domain.SensorUpdateEvent)
		if !ok {
			return
		}
		select {
		case outbound <- wsSensorMessage{Id: event.SensorId(), Value: sensorEventValue(event)}:
		default:
			// slow consumer, drop the update
		}
	})

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		s.eventStream.Unsubscribe(sub)
		_ = conn.Close()
	}()

	for {
		select {
		case <-closed:
			return nil
		case msg := <-outbound:
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug("event stream write failed", zap.Error(err))
				return nil
			}
		}
	}
}

func sensorEventValue(event domain.SensorUpdateEvent) any {
	switch ev := event.(type) {
	case domain.FloatSensorUpdateEvent:
		return ev.Value
	case domain.BinarySensorUpdateEvent:
		return ev.Value
	case domain.SwitchSensorUpdateEvent:
		return ev.Value
	case domain.TextSensorUpdateEvent:
		return ev.Value
	case domain.BridgeStateUpdateEvent:
		return ev.Value
	case domain.InputNumberSensorUpdateEvent:
		return ev.Value
	default:
		return nil
	}
}
