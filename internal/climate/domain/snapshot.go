package domain

import (
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// LocationReading is a point-in-time view of one tracked location.
type LocationReading struct {
	ID             string    `json:"id"`
	AvgTemperature float64   `json:"avg_temperature"`
	AvgHumidity    float64   `json:"avg_humidity"`
	Samples        int       `json:"samples"`
	Warm           bool      `json:"warm"`
	LastSeen       time.Time `json:"last_seen"`
}

// AggregateSnapshot holds the cross-location statistics of one decision
// cycle. It is immutable once built.
type AggregateSnapshot struct {
	perLocationAvg    map[string]float64
	maxAvg            float64
	minAvg            float64
	maxPairwiseSpread float64
	anyAboveHigh      bool
	anyBelowLow       bool
	takenAt           time.Time
}

// NewAggregateSnapshot folds the per-location averages into a snapshot. An
// empty set of readings yields ErrNoData.
func NewAggregateSnapshot(readings []LocationReading, thresholds Thresholds, takenAt time.Time) (AggregateSnapshot, error) {
	if len(readings) == 0 {
		return AggregateSnapshot{}, ErrNoData
	}

	s := AggregateSnapshot{
		perLocationAvg: make(map[string]float64, len(readings)),
		maxAvg:         readings[0].AvgTemperature,
		minAvg:         readings[0].AvgTemperature,
		takenAt:        takenAt,
	}
	for _, r := range readings {
		avg := r.AvgTemperature
		s.perLocationAvg[r.ID] = avg
		s.maxAvg = max(s.maxAvg, avg)
		s.minAvg = min(s.minAvg, avg)
		if avg > thresholds.High {
			s.anyAboveHigh = true
		}
		if avg < thresholds.Low {
			s.anyBelowLow = true
		}
	}
	// the two extremes realise the largest pairwise difference
	s.maxPairwiseSpread = s.maxAvg - s.minAvg

	return s, nil
}

func (s AggregateSnapshot) IsZero() bool { return len(s.perLocationAvg) == 0 }

func (s AggregateSnapshot) Len() int { return len(s.perLocationAvg) }

func (s AggregateSnapshot) MaxAvg() float64 { return s.maxAvg }

func (s AggregateSnapshot) MinAvg() float64 { return s.minAvg }

func (s AggregateSnapshot) MaxPairwiseSpread() float64 { return s.maxPairwiseSpread }

func (s AggregateSnapshot) AnyAboveHigh() bool { return s.anyAboveHigh }

func (s AggregateSnapshot) AnyBelowLow() bool { return s.anyBelowLow }

func (s AggregateSnapshot) TakenAt() time.Time { return s.takenAt }

func (s AggregateSnapshot) Average(location string) (float64, bool) {
	avg, ok := s.perLocationAvg[location]
	return avg, ok
}

// Locations returns the tracked location ids in lexical order.
func (s AggregateSnapshot) Locations() []string {
	return slices.Sorted(maps.Keys(s.perLocationAvg))
}

func (s AggregateSnapshot) PerLocationAvg() map[string]float64 {
	return maps.Clone(s.perLocationAvg)
}

type aggregateSnapshotJSON struct {
	PerLocationAvg    map[string]float64 `json:"per_location_avg"`
	MaxAvg            float64            `json:"max_avg"`
	MinAvg            float64            `json:"min_avg"`
	MaxPairwiseSpread float64            `json:"max_pairwise_spread"`
	AnyAboveHigh      bool               `json:"any_above_high"`
	AnyBelowLow       bool               `json:"any_below_low"`
	TakenAt           time.Time          `json:"taken_at"`
}

func (s AggregateSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(aggregateSnapshotJSON{
		PerLocationAvg:    s.perLocationAvg,
		MaxAvg:            s.maxAvg,
		MinAvg:            s.minAvg,
		MaxPairwiseSpread: s.maxPairwiseSpread,
		AnyAboveHigh:      s.anyAboveHigh,
		AnyBelowLow:       s.anyBelowLow,
		TakenAt:           s.takenAt,
	})
}
