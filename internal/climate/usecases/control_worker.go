package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/infra/async"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const _shutdownActuationTimeout = 5 * time.Second

func NewControlWorker(
	ticker *time.Ticker,
	source SnapshotSource,
	engine *DecisionEngine,
	actuator Actuator,
	clock Clock,
	startupDelay time.Duration,
	broker async.InternalBroker,
	instrumentation *Instrumentation,
) *ControlWorker {
	return &ControlWorker{
		ticker:          ticker,
		source:          source,
		engine:          engine,
		actuator:        actuator,
		clock:           clock,
		startupDelay:    startupDelay,
		broker:          broker,
		instrumentation: instrumentation,
	}
}

var _ async.Worker = &ControlWorker{}

// ControlWorker runs the decide and actuate cycle. The actuator is driven
// to Off on start and again before Run returns.
type ControlWorker struct {
	ticker          *time.Ticker
	source          SnapshotSource
	engine          *DecisionEngine
	actuator        Actuator
	clock           Clock
	startupDelay    time.Duration
	broker          async.InternalBroker
	instrumentation *Instrumentation
}

func (w *ControlWorker) Run(ctx context.Context, done func()) {
	slog.Debug("control worker started")
	defer done()

	if err := w.actuator.SetMode(ctx, domain.ModeOff); err != nil {
		slog.Error("initialising actuator", slog.Any("error", err))
		w.instrumentation.actuatorError()
		w.engine.Desync()
	}
	warmUntil := w.clock.Now().Add(w.startupDelay)
	slog.Info("control loop warming up", slog.Time("first_decision_after", warmUntil))

	for {
		select {
		case <-ctx.Done():
			slog.Info("control worker cancelled")
			w.release()
			return
		case <-w.ticker.C:
			tickCtx, span := otel.Tracer("thermostat_server").Start(ctx, "control_cycle")
			w.cycle(tickCtx, warmUntil)
			span.End()
		}
	}
}

func (w *ControlWorker) Shutdown() {
	slog.Info("control worker shutdown")
}

func (w *ControlWorker) cycle(ctx context.Context, warmUntil time.Time) {
	span := trace.SpanFromContext(ctx)
	snapshot, err := w.source.Snapshot(ctx)
	if errors.Is(err, domain.ErrNoData) {
		slog.Debug("no climate data, control loop idle")
		return
	}
	if err != nil {
		slog.Error("taking snapshot",
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.Any("error", err))
		return
	}
	publish(ctx, w.broker, DecisionsTopic, EventSnapshot, snapshot)

	now := w.clock.Now()
	if now.Before(warmUntil) {
		w.engine.Observe(now, snapshot)
		return
	}

	decision := w.engine.Evaluate(now, snapshot)
	if decision.Held {
		slog.Debug("mode change held by dwell",
			slog.String("mode", decision.Mode.String()),
			slog.Duration("remaining", decision.Hold))
	}
	if !decision.Transition {
		return
	}
	w.apply(ctx, decision)
}

func (w *ControlWorker) apply(ctx context.Context, decision Decision) {
	span := trace.SpanFromContext(ctx)
	if err := w.actuator.SetMode(ctx, decision.Mode); err != nil {
		slog.Error("driving actuator, transition will be retried",
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("mode", decision.Mode.String()),
			slog.Any("error", err))
		w.instrumentation.actuatorError()
		// a partial write may have left every relay released
		w.engine.Desync()
		return
	}

	w.engine.Commit(decision)
	if decision.Mode == decision.Previous {
		w.instrumentation.setMode(decision.Mode)
		slog.Info("actuator resynchronised", slog.String("mode", decision.Mode.String()))
		return
	}
	w.report(ctx, decision)
}

func (w *ControlWorker) report(ctx context.Context, decision Decision) {
	w.instrumentation.modeTransition(decision.Mode)
	slog.Info("mode changed",
		slog.String("mode", decision.Mode.String()),
		slog.String("previous", decision.Previous.String()),
		slog.Duration("hold", decision.Hold))
	publish(ctx, w.broker, DecisionsTopic, EventModeChanged, ModeChangedEvent{
		Mode:     decision.Mode,
		Previous: decision.Previous,
		Hold:     decision.Hold.String(),
		At:       decision.At,
	})
}

// release forces the actuator Off, outliving the cancelled run context.
func (w *ControlWorker) release() {
	ctx, cancel := context.WithTimeout(context.Background(), _shutdownActuationTimeout)
	defer cancel()

	decision := w.engine.Force(w.clock.Now(), domain.ModeOff)
	if err := w.actuator.SetMode(ctx, domain.ModeOff); err != nil {
		slog.Error("releasing actuator", slog.Any("error", err))
		w.instrumentation.actuatorError()
		w.engine.Desync()
		return
	}
	w.engine.Commit(decision)
	if decision.Mode != decision.Previous {
		w.report(ctx, decision)
	} else {
		w.instrumentation.setMode(domain.ModeOff)
	}
	slog.Info("actuator released", slog.String("mode", domain.ModeOff.String()))
}
