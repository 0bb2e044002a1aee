package usecases

import (
	"context"
	"time"

	"thermostat-server/internal/climate/domain"
)

//go:generate mockgen -source=registry_port.go -destination=../../../test/unit/doubles/climate/usecases/registry_port_mock.go -package=usecases -mock_names=LocationRegistry=MockLocationRegistry

// LocationRegistry is the single shared store of per-location rolling state.
// Every method is atomic with respect to every other.
type LocationRegistry interface {
	// Upsert pushes measurement into the windows of its location, creating the entry
	// when the location is unseen, and stamps it with at.
	Upsert(ctx context.Context, measurement domain.Measurement, at time.Time) (created bool, err error)
	Locations(ctx context.Context) []string
	// EvictIfStale deletes id only if, at the moment of deletion, it has been
	// silent for at least timeout.
	EvictIfStale(ctx context.Context, id string, now time.Time, timeout time.Duration) bool
	Evict(ctx context.Context, id string) bool
	Readings(ctx context.Context) []domain.LocationReading
	Len(ctx context.Context) int
}
