package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"thermostat-server/internal/data_plane/dto"
	"thermostat-server/internal/infra/async"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const _receiveErrorBackoff = 100 * time.Millisecond

func NewIngestionWorker(source DatagramSource, service *IngestionService, instrumentation *Instrumentation) *IngestionWorker {
	return &IngestionWorker{
		source:          source,
		service:         service,
		instrumentation: instrumentation,
	}
}

var _ async.Worker = &IngestionWorker{}

// IngestionWorker drains one datagram source into the IngestionService.
type IngestionWorker struct {
	source          DatagramSource
	service         *IngestionService
	instrumentation *Instrumentation
}

func (w *IngestionWorker) Run(ctx context.Context, done func()) {
	slog.Debug("ingestion worker started", slog.String("source", w.source.Name()))
	defer done()

	for {
		if ctx.Err() != nil {
			slog.Info("ingestion worker cancelled", slog.String("source", w.source.Name()))
			return
		}

		datagram, err := w.source.Receive(ctx)
		switch {
		case errors.Is(err, dto.ErrNoDatagram):
			continue
		case ctx.Err() != nil:
			continue
		case err != nil:
			slog.Error("receiving datagram",
				slog.String("source", w.source.Name()),
				slog.Any("error", err))
			select {
			case <-ctx.Done():
			case <-time.After(_receiveErrorBackoff):
			}
			continue
		}

		w.handle(ctx, datagram)
	}
}

func (w *IngestionWorker) Shutdown() {
	slog.Info("ingestion worker shutdown", slog.String("source", w.source.Name()))
}

func (w *IngestionWorker) handle(ctx context.Context, datagram dto.Datagram) {
	ctx, span := otel.Tracer("thermostat_server").Start(ctx, "ingest",
		trace.WithAttributes(
			attribute.String("source", w.source.Name()),
			attribute.String("origin", datagram.Origin),
		))
	defer span.End()

	sample, err := dto.ParseSample(datagram.Payload)
	if err != nil {
		slog.Warn("discarding malformed datagram",
			slog.String("source", w.source.Name()),
			slog.String("origin", datagram.Origin),
			slog.Any("error", err))
		w.instrumentation.sampleDropped(DropReasonMalformed)
		return
	}

	_ = w.service.Ingest(ctx, sample, w.source.Name())
}
