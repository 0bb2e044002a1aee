package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/infra/async"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	_serviceName          = "thermostat_server"
	_metricKeyTemperature = "temperature"
	_metricKeyHumidity    = "humidity"
	_metricKeyMode        = "mode"
	_metricKeyLocations   = "location_events"
)

func NewMetricPublisherWorker(broker async.InternalBroker) *MetricPublisherWorker {
	return &MetricPublisherWorker{
		broker:         broker,
		metricCounters: make(map[string]metric.Float64Counter),
		metricGauges:   make(map[string]metric.Float64Gauge),
	}
}

var _ async.Worker = &MetricPublisherWorker{}

// MetricPublisherWorker mirrors broker events into OpenTelemetry instruments.
type MetricPublisherWorker struct {
	broker         async.InternalBroker
	metricCounters map[string]metric.Float64Counter
	metricGauges   map[string]metric.Float64Gauge
}

func (w *MetricPublisherWorker) Run(ctx context.Context, done func()) {
	slog.Debug("metric publisher worker started")
	defer done()

	w.setupMetrics()

	reports, err := w.broker.Subscribe(ReportsTopic)
	if err != nil {
		slog.Error("subscribing to topic", slog.String("topic", string(ReportsTopic)), slog.Any("error", err))
		return
	}
	defer w.unsubscribe(ReportsTopic, reports)

	decisions, err := w.broker.Subscribe(DecisionsTopic)
	if err != nil {
		slog.Error("subscribing to topic", slog.String("topic", string(DecisionsTopic)), slog.Any("error", err))
		return
	}
	defer w.unsubscribe(DecisionsTopic, decisions)

	locations, err := w.broker.Subscribe(LocationsTopic)
	if err != nil {
		slog.Error("subscribing to topic", slog.String("topic", string(LocationsTopic)), slog.Any("error", err))
		return
	}
	defer w.unsubscribe(LocationsTopic, locations)

	for {
		select {
		case <-ctx.Done():
			slog.Info("metric publisher worker cancelled")
			return
		case msg, ok := <-reports.Receiver:
			if !ok {
				return
			}
			w.handleEvent(ctx, msg)
		case msg, ok := <-decisions.Receiver:
			if !ok {
				return
			}
			w.handleEvent(ctx, msg)
		case msg, ok := <-locations.Receiver:
			if !ok {
				return
			}
			w.handleEvent(ctx, msg)
		}
	}
}

func (w *MetricPublisherWorker) Shutdown() {
	slog.Info("metric publisher worker shutdown")
}

func (w *MetricPublisherWorker) setupMetrics() {
	meter := otel.Meter(_serviceName)

	temperatureGauge, _ := meter.Float64Gauge(
		fmt.Sprintf("%s.location.%s", _serviceName, _metricKeyTemperature),
		metric.WithDescription("Rolling average temperature per location"),
	)
	w.metricGauges[_metricKeyTemperature] = temperatureGauge

	humidityGauge, _ := meter.Float64Gauge(
		fmt.Sprintf("%s.location.%s", _serviceName, _metricKeyHumidity),
		metric.WithDescription("Rolling average humidity per location"),
	)
	w.metricGauges[_metricKeyHumidity] = humidityGauge

	modeGauge, _ := meter.Float64Gauge(
		fmt.Sprintf("%s.%s", _serviceName, _metricKeyMode),
		metric.WithDescription("1 for the asserted actuation mode, 0 otherwise"),
	)
	w.metricGauges[_metricKeyMode] = modeGauge

	locationCounter, _ := meter.Float64Counter(
		fmt.Sprintf("%s.%s", _serviceName, _metricKeyLocations),
		metric.WithDescription("Location discoveries and losses"),
	)
	w.metricCounters[_metricKeyLocations] = locationCounter
}

func (w *MetricPublisherWorker) unsubscribe(topic async.BrokerTopicName, subscription async.Subscription) {
	if err := w.broker.Unsubscribe(topic, subscription); err != nil {
		slog.Error("failed to unsubscribe", slog.String("topic", string(topic)), slog.Any("error", err))
	}
}

func (w *MetricPublisherWorker) handleEvent(ctx context.Context, msg async.BrokerMessage) {
	switch value := msg.Value.(type) {
	case ReportEvent:
		w.handleReport(ctx, value)
	case ModeChangedEvent:
		w.handleModeChanged(ctx, value)
	case LocationEvent:
		w.handleLocationEvent(ctx, msg.Event, value)
	default:
		slog.Debug("unhandled event type", slog.String("event", msg.Event))
	}
}

func (w *MetricPublisherWorker) handleReport(ctx context.Context, report ReportEvent) {
	for _, r := range report.Readings {
		attributes := metric.WithAttributes(
			semconv.ServiceNameKey.String(_serviceName),
			attribute.String("location", r.ID),
			attribute.String("unit", report.Unit),
		)
		w.metricGauges[_metricKeyTemperature].Record(ctx, r.AvgTemperature, attributes)
		w.metricGauges[_metricKeyHumidity].Record(ctx, r.AvgHumidity, attributes)
	}
}

func (w *MetricPublisherWorker) handleModeChanged(ctx context.Context, event ModeChangedEvent) {
	for _, mode := range domain.Modes {
		value := 0.0
		if mode == event.Mode {
			value = 1
		}
		w.metricGauges[_metricKeyMode].Record(ctx, value, metric.WithAttributes(
			semconv.ServiceNameKey.String(_serviceName),
			attribute.String("mode", mode.String()),
		))
	}
}

func (w *MetricPublisherWorker) handleLocationEvent(ctx context.Context, event string, location LocationEvent) {
	w.metricCounters[_metricKeyLocations].Add(ctx, 1, metric.WithAttributes(
		semconv.ServiceNameKey.String(_serviceName),
		attribute.String("location", location.Location),
		attribute.String("event", event),
	))
}
