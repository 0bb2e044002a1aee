package usecases

import (
	"context"
	"errors"
	"log/slog"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/infra/async"
)

func NewIngestionService(
	registry LocationRegistry,
	unit domain.Unit,
	clock Clock,
	broker async.InternalBroker,
	instrumentation *Instrumentation,
) *IngestionService {
	return &IngestionService{
		registry:        registry,
		unit:            unit,
		clock:           clock,
		broker:          broker,
		instrumentation: instrumentation,
	}
}

// IngestionService admits decoded samples into the registry.
type IngestionService struct {
	registry        LocationRegistry
	unit            domain.Unit
	clock           Clock
	broker          async.InternalBroker
	instrumentation *Instrumentation
}

// Ingest validates the sample, converts it to the canonical unit and pushes it
// into its location's windows. A rejected sample is logged and reported as
// domain.ErrInvalidSample; it never reaches the registry.
func (s *IngestionService) Ingest(ctx context.Context, sample domain.Sample, source string) error {
	if err := sample.Validate(); err != nil {
		slog.Warn("dropping invalid sample",
			slog.String("source", source),
			slog.String("location", sample.Location),
			slog.Any("error", err))
		s.instrumentation.sampleDropped(DropReasonInvalid)
		return err
	}

	measurement := sample.Normalize(s.unit)
	now := s.clock.Now()
	created, err := s.registry.Upsert(ctx, measurement, now)
	if err != nil {
		slog.Error("upserting sample",
			slog.String("location", measurement.Location),
			slog.Any("error", err))
		s.instrumentation.sampleDropped(DropReasonRegistry)
		return err
	}

	if created {
		slog.Info("location has connected",
			slog.String("location", measurement.Location),
			slog.String("source", source))
		publish(ctx, s.broker, LocationsTopic, EventLocationDiscovered, LocationEvent{Location: measurement.Location, At: now})
	}
	slog.Debug("sample ingested",
		slog.String("location", measurement.Location),
		slog.Float64("temperature", measurement.Temperature),
		slog.Float64("humidity", measurement.Humidity))

	s.instrumentation.sampleIngested(source)
	s.instrumentation.trackedLocations(s.registry.Len(ctx))
	return nil
}

// publish fans an event out on the internal broker. A topic nobody listens to
// is not an error.
func publish(ctx context.Context, broker async.InternalBroker, topic async.BrokerTopicName, event string, value any) {
	if broker == nil {
		return
	}
	err := broker.Publish(ctx, topic, async.BrokerMessage{Event: event, Value: value})
	if err != nil && !errors.Is(err, async.ErrTopicNotFound) {
		slog.Error("publishing event",
			slog.String("topic", string(topic)),
			slog.String("event", event),
			slog.Any("error", err))
	}
}
