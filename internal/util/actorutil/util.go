package actorutil

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/nickwest/sunchaser/internal/core/domain"
	"github.com/nickwest/sunchaser/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {

		// create a new logger
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.ActorRequest, error) {
	switch cmd.DeviceId {
	case domain.SWITCH_ID_BATTERY_MANAGEMENT:
		return domain.BatteryManagementRequest{
			Enable: cmd.Payload == "on",
		}, nil
	case domain.SWITCH_ID_DOCKED_CHARGING:
		return domain.DockedChargingRequest{
			Enable: cmd.Payload == "on",
		}, nil
	case domain.SWITCH_ID_KEEP_ON_DISCHARGE:
		return domain.KeepOnDischargeRequest{
			Enable: cmd.Payload == "on",
		}, nil
	case domain.INPUT_NUMBER_ID_MIN_POWER_PERCENT:
		value, err := strconv.ParseFloat(cmd.Payload, 64)
		if err != nil || value < 0 || value > 100 {
			return nil, err
		}
		return domain.SetMinPowerPercentRequest{
			Percent: value,
		}, nil
	}
	return nil, nil
}
