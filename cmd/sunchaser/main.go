package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/nickwest/sunchaser/internal/adapter/actor"
	"github.com/nickwest/sunchaser/internal/adapter/recorder"
	"github.com/nickwest/sunchaser/internal/adapter/storage"
	"github.com/nickwest/sunchaser/internal/config"
	coreactor "github.com/nickwest/sunchaser/internal/core/actor"
	"github.com/nickwest/sunchaser/internal/core/domain"
	"github.com/nickwest/sunchaser/internal/core/port"
	"github.com/nickwest/sunchaser/internal/core/service"
	"github.com/nickwest/sunchaser/internal/server"
	"github.com/nickwest/sunchaser/internal/util/actorutil"
	"github.com/nickwest/sunchaser/pkg/powergrid"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/carlmjohnson/versioninfo"
	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	slog.Info("sunchaser", "version", versioninfo.Short())

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// simulated power grid, stepped on a fixed schedule
	grid := powergrid.NewSimulatedGrid(simConfig(cfg))
	shed, err := startSimScheduler(grid)
	if err != nil {
		panic(err)
	}
	defer shed.Stop()

	// persistent alignment search state
	stateStore, err := stateStoreFromConfig(cfg, logger)
	if err != nil {
		panic(err)
	}
	defer stateStore.Close()

	axisA, _ := powergrid.ParseAxis(cfg.ControlConfig.AxisA)
	axisB, _ := powergrid.ParseAxis(cfg.ControlConfig.AxisB)

	eventStream := &eventstream.EventStream{}

	// optional InfluxDB sensor recorder
	if cfg.InfluxConfig.URL != "" {
		rec := recorder.NewInfluxRecorder(cfg.InfluxConfig, logger)
		rec.Subscribe(eventStream)
		defer rec.Close()
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return coreactor.NewMasterControlActor(*cfg, func() *adactor.GridActor {
			return adactor.NewGridActor(grid, axisA, axisB, cfg.ControlConfig.TurnRate, logger)
		}, func() *adactor.MQTTActor {
			return adactor.NewMQTTActor(cfg, logger)
		}, func(gridActor *pactor.PID, stream *eventstream.EventStream) *coreactor.ControlLoopActor {
			alignment := &service.DefaultAlignmentLogic{
				AxisA:        axisA,
				AxisB:        axisB,
				AutoOverride: cfg.ControlConfig.AutoOverride,
				Logger:       logger,
			}
			router := &service.DefaultChargeRouterLogic{
				SizeClass:       cfg.GridConfig.SizeClass,
				DockedCharging:  cfg.BatteryConfig.DockedCharging,
				KeepOnDischarge: cfg.BatteryConfig.KeepOnDischarge,
				Logger:          logger,
			}
			return coreactor.NewControlLoopActor(cfg, gridActor, alignment, router, stateStore, stream, logger)
		}, eventStream, logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid, eventStream, logger)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

const simStepInterval = 1 * time.Second

func startSimScheduler(grid *powergrid.SimulatedGrid) (quartz.Scheduler, error) {
	shed := quartz.NewStdScheduler()
	shed.Start(context.Background())

	stepJob := job.NewFunctionJob(func(_ context.Context) (int, error) {
		grid.Step(simStepInterval)
		return 0, nil
	})
	jobKey := quartz.NewJobKey("sim_step")
	if err := shed.ScheduleJob(quartz.NewJobDetail(stepJob, jobKey), quartz.NewSimpleTrigger(simStepInterval)); err != nil {
		return nil, err
	}
	return shed, nil
}

func simConfig(cfg *config.Config) powergrid.SimConfig {
	return powergrid.SimConfig{
		PanelCount:         cfg.SimConfig.PanelCount,
		PanelMaxOutputWatt: cfg.SimConfig.PanelMaxOutputWatt,
		LocalCellCount:     cfg.SimConfig.LocalCellCount,
		DockedCellCount:    cfg.SimConfig.DockedCellCount,
		CellMaxOutputWatt:  12_000,
		CellMaxInputWatt:   12_000,
		CellCapacityWh:     domain.CellCapacityWhForSize(cfg.GridConfig.SizeClass),
		InitialChargeRatio: 0.5,
		SunDriftRadPerSec:  cfg.SimConfig.SunDriftRadPerSec,
		BaseLoadWatt:       cfg.SimConfig.BaseLoadWatt,
	}
}

func stateStoreFromConfig(cfg *config.Config, logger *zap.Logger) (port.AlignmentStateStore, error) {
	switch cfg.StateConfig.Backend {
	case config.StateBackendSQLite:
		return storage.NewSQLiteStateStore(cfg.StateConfig.Path, logger)
	case config.StateBackendFile:
		return storage.NewFileStateStore(cfg.StateConfig.Path, logger), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.StateConfig.Backend)
	}
}

func initConfig() (*config.Config, error) {

	// alias PORT => SUNCHASER_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("SUNCHASER_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("sunchaser")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check bounds
	if cfg.ControlConfig.TickIntervalMillis < 500 {
		return nil, errors.New("config param control.tick_interval_millis should be >= 500")
	}
	if cfg.ControlConfig.MinPowerPercent <= 0 || cfg.ControlConfig.MinPowerPercent > 100 {
		return nil, errors.New("config param control.min_power_percent should be in (0, 100]")
	}
	if cfg.ControlConfig.TurnRate <= 0 || cfg.ControlConfig.TurnRate > 1 {
		return nil, errors.New("config param control.turn_rate should be in (0, 1]")
	}
	axisA, err := powergrid.ParseAxis(cfg.ControlConfig.AxisA)
	if err != nil {
		return nil, errors.New("config param control.axis_a should be one of roll, pitch, yaw")
	}
	axisB, err := powergrid.ParseAxis(cfg.ControlConfig.AxisB)
	if err != nil {
		return nil, errors.New("config param control.axis_b should be one of roll, pitch, yaw")
	}
	if axisA == axisB {
		return nil, errors.New("config params control.axis_a and control.axis_b should differ")
	}
	if cfg.GridConfig.SizeClass != domain.SizeClassLarge && cfg.GridConfig.SizeClass != domain.SizeClassSmall {
		return nil, errors.New("config param grid.size_class should be large or small")
	}
	if cfg.SimConfig.PanelCount < 1 {
		return nil, errors.New("config param sim.panel_count should be >= 1")
	}

	return &cfg, nil
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "sunchaser")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("control.tick_interval_millis", 2000)
	viper.SetDefault("control.min_power_percent", 90)
	viper.SetDefault("control.turn_rate", 0.5)
	viper.SetDefault("control.axis_a", "pitch")
	viper.SetDefault("control.axis_b", "yaw")
	viper.SetDefault("control.auto_override", true)
	viper.SetDefault("battery.enable", true)
	viper.SetDefault("battery.docked_charging", true)
	viper.SetDefault("battery.keep_on_discharge", false)
	viper.SetDefault("grid.size_class", "large")
	viper.SetDefault("state.backend", "file")
	viper.SetDefault("state.path", "sunchaser_state")
	viper.SetDefault("sim.panel_count", 6)
	viper.SetDefault("sim.panel_max_output_watt", 20000)
	viper.SetDefault("sim.local_cell_count", 2)
	viper.SetDefault("sim.docked_cell_count", 1)
	viper.SetDefault("sim.sun_drift_rad_per_sec", 0.001)
	viper.SetDefault("sim.base_load_watt", 1000)
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	cfg.InfluxConfig.Token = "*redacted*"
	slog.Info("Using", "config", cfg)
}
