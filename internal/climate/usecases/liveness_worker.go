package usecases

import (
	"context"
	"log/slog"
	"time"

	"thermostat-server/internal/infra/async"
)

func NewLivenessWorker(
	ticker *time.Ticker,
	registry LocationRegistry,
	clock Clock,
	timeout time.Duration,
	broker async.InternalBroker,
	instrumentation *Instrumentation,
) *LivenessWorker {
	return &LivenessWorker{
		ticker:          ticker,
		registry:        registry,
		clock:           clock,
		timeout:         timeout,
		broker:          broker,
		instrumentation: instrumentation,
	}
}

var _ async.Worker = &LivenessWorker{}

// LivenessWorker forgets locations that stayed silent for the staleness
// timeout.
type LivenessWorker struct {
	ticker          *time.Ticker
	registry        LocationRegistry
	clock           Clock
	timeout         time.Duration
	broker          async.InternalBroker
	instrumentation *Instrumentation
}

func (w *LivenessWorker) Run(ctx context.Context, done func()) {
	slog.Debug("liveness worker started", slog.Duration("timeout", w.timeout))
	defer done()
	for {
		select {
		case <-ctx.Done():
			slog.Info("liveness worker cancelled")
			return
		case <-w.ticker.C:
			w.Sweep(ctx)
		}
	}
}

func (w *LivenessWorker) Shutdown() {
	slog.Info("liveness worker shutdown")
}

// Sweep evicts every stale location and returns the evicted ids.
func (w *LivenessWorker) Sweep(ctx context.Context) []string {
	ids := w.registry.Locations(ctx)
	if len(ids) == 0 {
		slog.Warn("no nodes found")
		return nil
	}

	now := w.clock.Now()
	var evicted []string
	for _, id := range ids {
		// the registry re-checks last_seen under its lock, so a sample that
		// arrived after Locations keeps the entry alive
		if !w.registry.EvictIfStale(ctx, id, now, w.timeout) {
			continue
		}
		evicted = append(evicted, id)
		slog.Info("connection to location has been lost",
			slog.String("location", id),
			slog.Duration("timeout", w.timeout))
		w.instrumentation.locationEvicted()
		publish(ctx, w.broker, LocationsTopic, EventLocationLost, LocationEvent{Location: id, At: now})
	}
	w.instrumentation.trackedLocations(w.registry.Len(ctx))
	return evicted
}
