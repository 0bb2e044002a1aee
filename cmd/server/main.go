package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"thermostat-server/cmd/config"
	"thermostat-server/internal/climate/httpapi"
	"thermostat-server/internal/climate/persistence"
	"thermostat-server/internal/climate/usecases"
	"thermostat-server/internal/infra/async"
	"thermostat-server/internal/infra/httpserver"
	"thermostat-server/internal/infra/mqtt"
	"thermostat-server/internal/infra/node"
	"thermostat-server/internal/infra/relay"
	"thermostat-server/internal/infra/udp"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
)

const _httpShutdownTimeout = 10 * time.Second

var (
	logLevelMapping = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
)

func main() {
	configPath := pflag.String("config", "", "path to the configuration file")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	setupLogger(cfg.General)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("🌡️ thermostat is initializing")
	slog.Debug("config loaded", slog.Any("data", cfg))

	shutdownOtel := startOTel()

	internalBroker := async.NewLocalBroker()
	instrumentation := usecases.NewInstrumentation(prometheus.DefaultRegisterer)
	clock := usecases.SystemClock{}

	registry := persistence.NewMemoryRegistry(
		persistence.WithWindowSize(cfg.Climate.WindowSize),
		persistence.WithColdStart(cfg.ColdStart()),
		persistence.WithDefaults(cfg.Climate.DefaultTemperature, cfg.Climate.DefaultHumidity),
	)
	ingestion := usecases.NewIngestionService(registry, cfg.Unit(), clock, internalBroker, instrumentation)
	aggregator := usecases.NewAggregator(registry, cfg.Thresholds(), cfg.ColdStart(), clock)
	engine := usecases.NewDecisionEngine(cfg.Thresholds(), cfg.DwellTimes())

	var mqttClient *mqtt.SimpleClient
	if cfg.Ingest.MQTT.Enabled || cfg.Actuator.Driver == config.DriverMQTT {
		mqttClient, err = mqtt.NewSimpleClient(mqtt.SimpleClientOpts{
			Broker:   cfg.MQTTClient.Broker,
			ClientID: cfg.MQTTClient.ClientID,
			Username: cfg.MQTTClient.Username,
			Password: cfg.MQTTClient.Password, //pragma: allowlist secret
		})
		if err != nil {
			fatal("connecting to mqtt broker", err)
		}
	}

	actuator, err := newActuator(cfg, mqttClient)
	if err != nil {
		fatal("creating actuator", err)
	}

	udpSource, err := udp.Listen(udp.SourceOpts{
		Address:     cfg.Ingest.UDP.Address,
		BufferSize:  cfg.Ingest.UDP.BufferSize,
		ReadTimeout: cfg.Ingest.UDP.ReadTimeout,
	})
	if err != nil {
		fatal("binding udp listener", err)
	}

	sources := []usecases.DatagramSource{udpSource}
	if cfg.Ingest.MQTT.Enabled {
		mqttSource, err := mqtt.NewSource(mqttClient, mqtt.SourceOpts{
			Topic:       cfg.Ingest.MQTT.Topic,
			BufferSize:  cfg.Ingest.MQTT.BufferSize,
			ReadTimeout: cfg.Ingest.MQTT.ReadTimeout,
		})
		if err != nil {
			fatal("subscribing to sensor topic", err)
		}
		sources = append(sources, mqttSource)
	}

	reportWorker, err := usecases.NewReportWorker(
		time.NewTicker(time.Second),
		cfg.Report.Schedule,
		registry,
		cfg.Unit(),
		clock,
		internalBroker,
	)
	if err != nil {
		fatal("creating report worker", err)
	}

	streamController, err := httpapi.NewClimateStreamController(internalBroker, cfg.HTTP.AllowedOrigins)
	if err != nil {
		fatal("creating climate stream", err)
	}

	httpServer, err := httpserver.NewServer(
		cfg.HTTP.Address,
		cfg.HTTP.AllowedOrigins,
		httpapi.NewStatusController(aggregator, registry, engine),
		streamController,
	)
	if err != nil {
		fatal("creating http server", err)
	}
	go func() {
		if err := httpServer.Run(); err != nil {
			fatal("http server stopped", err)
		}
	}()

	workers := []async.Worker{
		usecases.NewMetricPublisherWorker(internalBroker),
		usecases.NewLivenessWorker(
			time.NewTicker(cfg.Liveness.Period),
			registry,
			clock,
			cfg.Liveness.Timeout,
			internalBroker,
			instrumentation,
		),
		usecases.NewControlWorker(
			time.NewTicker(cfg.Control.Period),
			aggregator,
			engine,
			actuator,
			clock,
			cfg.Control.StartupDelay,
			internalBroker,
			instrumentation,
		),
		reportWorker,
	}
	for _, source := range sources {
		workers = append(workers, usecases.NewIngestionWorker(source, ingestion, instrumentation))
	}

	appCtx, cancelFn := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, worker := range workers {
		wg.Add(1)
		go worker.Run(appCtx, wg.Done)
	}

	signalChannel := make(chan os.Signal, 2)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)

	sig := <-signalChannel
	slog.Info("shutdown requested", slog.String("signal", sig.String()))

	// workers first so the actuator is released before transports go away
	cancelFn()
	wg.Wait()
	for _, worker := range workers {
		worker.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), _httpShutdownTimeout)
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown", slog.String("error", err.Error()))
	}
	cancel()
	streamController.Shutdown()

	if err := udpSource.Close(); err != nil {
		slog.Error("closing udp listener", slog.String("error", err.Error()))
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	internalBroker.Stop()

	if err := shutdownOtel(); err != nil {
		slog.Error("otel shutdown", slog.String("error", err.Error()))
	}
	slog.Info("good bye!!!")
	os.Exit(0)
}

func newActuator(cfg config.AppConfig, client mqtt.Client) (*relay.RelayBoard, error) {
	var driver relay.PinDriver
	switch cfg.Actuator.Driver {
	case config.DriverMQTT:
		driver = relay.NewMQTTPinDriver(client, cfg.Actuator.MQTTTopic)
	case config.DriverLog:
		driver = relay.NewLogPinDriver()
	default:
		return nil, fmt.Errorf("unknown actuator driver %q", cfg.Actuator.Driver)
	}

	pins := relay.Pins{
		Heat: cfg.Actuator.Pins.Heat,
		Cool: cfg.Actuator.Pins.Cool,
		Fan:  cfg.Actuator.Pins.Fan,
	}
	return relay.NewRelayBoard(driver, pins, cfg.Actuator.ActiveLow)
}

func setupLogger(general config.GeneralConfig) {
	level, ok := logLevelMapping[general.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	var handler slog.Handler
	switch general.LogFormat {
	case config.LogFormatTint:
		handler = tint.NewHandler(os.Stdout, &tint.Options{AddSource: true, Level: level, TimeFormat: time.Kitchen})
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true, Level: level, ReplaceAttr: slogReplaceAttr})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true, Level: level, ReplaceAttr: slogReplaceAttr})
	}
	handler = handler.WithAttrs([]slog.Attr{slog.String("version", node.Version)})
	slog.SetDefault(slog.New(handler))
}

func slogReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		source := a.Value.Any().(*slog.Source)
		source.File = filepath.Base(source.File)
		return slog.Any(a.Key, source)
	}
	return a
}

func fatal(msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
