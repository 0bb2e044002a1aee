package usecases

import (
	"context"

	"thermostat-server/internal/climate/domain"
)

func NewAggregator(registry LocationRegistry, thresholds domain.Thresholds, coldStart domain.ColdStart, clock Clock) *Aggregator {
	return &Aggregator{
		registry:   registry,
		thresholds: thresholds,
		coldStart:  coldStart,
		clock:      clock,
	}
}

// Aggregator derives cross-location statistics from one consistent read of
// the registry.
type Aggregator struct {
	registry   LocationRegistry
	thresholds domain.Thresholds
	coldStart  domain.ColdStart
	clock      Clock
}

var _ SnapshotSource = (*Aggregator)(nil)

// Snapshot returns domain.ErrNoData when no location contributes, either
// because none is tracked or, with the exclude cold start, none is warm yet.
func (a *Aggregator) Snapshot(ctx context.Context) (domain.AggregateSnapshot, error) {
	readings := a.registry.Readings(ctx)
	if a.coldStart == domain.ColdStartExclude {
		warm := make([]domain.LocationReading, 0, len(readings))
		for _, r := range readings {
			if r.Warm {
				warm = append(warm, r)
			}
		}
		readings = warm
	}
	return domain.NewAggregateSnapshot(readings, a.thresholds, a.clock.Now())
}

func (a *Aggregator) Thresholds() domain.Thresholds { return a.thresholds }
