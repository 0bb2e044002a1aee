package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/infra/async"

	"github.com/robfig/cron/v3"
)

func NewReportWorker(
	ticker *time.Ticker,
	schedule string,
	registry LocationRegistry,
	unit domain.Unit,
	clock Clock,
	broker async.InternalBroker,
) (*ReportWorker, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	spec, err := parser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("parsing report schedule %q: %w", schedule, err)
	}
	return &ReportWorker{
		ticker:   ticker,
		schedule: spec,
		registry: registry,
		unit:     unit,
		clock:    clock,
		broker:   broker,
	}, nil
}

var _ async.Worker = &ReportWorker{}

// ReportWorker periodically logs and publishes the average of every tracked
// location.
type ReportWorker struct {
	ticker   *time.Ticker
	schedule cron.Schedule
	registry LocationRegistry
	unit     domain.Unit
	clock    Clock
	broker   async.InternalBroker
}

func (w *ReportWorker) Run(ctx context.Context, done func()) {
	slog.Debug("report worker started")
	defer done()

	nextRun := w.schedule.Next(w.clock.Now())
	for {
		select {
		case <-ctx.Done():
			slog.Info("report worker cancelled")
			return
		case <-w.ticker.C:
			now := w.clock.Now()
			if now.Before(nextRun) {
				continue
			}
			w.Report(ctx)
			nextRun = w.schedule.Next(now)
		}
	}
}

func (w *ReportWorker) Shutdown() {
	slog.Info("report worker shutdown")
}

// Report logs the current per-location averages and publishes them.
func (w *ReportWorker) Report(ctx context.Context) ReportEvent {
	report := ReportEvent{
		Unit:      w.unit.Symbol(),
		Readings:  w.registry.Readings(ctx),
		CreatedAt: w.clock.Now(),
	}
	if len(report.Readings) == 0 {
		slog.Debug("nothing to report")
		return report
	}

	for _, r := range report.Readings {
		slog.Info("location average",
			slog.String("location", r.ID),
			slog.String("temperature", fmt.Sprintf("%.1f%s", r.AvgTemperature, report.Unit)),
			slog.String("humidity", fmt.Sprintf("%.1f%%", r.AvgHumidity)),
			slog.Bool("warm", r.Warm))
	}
	publish(ctx, w.broker, ReportsTopic, EventLocationReport, report)
	return report
}
