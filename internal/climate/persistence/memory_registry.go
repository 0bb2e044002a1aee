package persistence

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/climate/usecases"
)

const (
	DefaultWindowSize = 20
	DefaultHumidity   = 40.0
)

type RegistryOption func(*MemoryRegistry)

func WithWindowSize(size int) RegistryOption {
	return func(r *MemoryRegistry) {
		if size > 0 {
			r.windowSize = size
		}
	}
}

func WithColdStart(coldStart domain.ColdStart) RegistryOption {
	return func(r *MemoryRegistry) {
		r.coldStart = coldStart
	}
}

// WithDefaults sets the neutral values new windows are pre-filled with under
// the prefill cold start.
func WithDefaults(temperature, humidity float64) RegistryOption {
	return func(r *MemoryRegistry) {
		r.defaultTemperature = temperature
		r.defaultHumidity = humidity
	}
}

func NewMemoryRegistry(opts ...RegistryOption) *MemoryRegistry {
	r := &MemoryRegistry{
		entries:            make(map[string]*locationEntry),
		windowSize:         DefaultWindowSize,
		coldStart:          domain.ColdStartPrefill,
		defaultTemperature: domain.Thresholds{Low: 70, High: 76}.Midpoint(),
		defaultHumidity:    DefaultHumidity,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ usecases.LocationRegistry = (*MemoryRegistry)(nil)

// MemoryRegistry keeps every location entry behind one lock. Entries never
// escape it: readers get value copies.
type MemoryRegistry struct {
	mu                 sync.RWMutex
	entries            map[string]*locationEntry
	windowSize         int
	coldStart          domain.ColdStart
	defaultTemperature float64
	defaultHumidity    float64
}

type locationEntry struct {
	temperature *domain.RollingWindow
	humidity    *domain.RollingWindow
	lastSeen    time.Time
	samples     int
}

func (r *MemoryRegistry) Upsert(ctx context.Context, m domain.Measurement, at time.Time) (bool, error) {
	if m.Location == "" {
		return false, fmt.Errorf("%w: empty location", domain.ErrInvalidSample)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[m.Location]
	if !exists {
		entry = r.newEntry()
		r.entries[m.Location] = entry
	}
	entry.temperature.Push(m.Temperature)
	entry.humidity.Push(m.Humidity)
	entry.samples++
	entry.lastSeen = at
	return !exists, nil
}

func (r *MemoryRegistry) newEntry() *locationEntry {
	if r.coldStart == domain.ColdStartExclude {
		return &locationEntry{
			temperature: domain.NewRollingWindow(r.windowSize),
			humidity:    domain.NewRollingWindow(r.windowSize),
		}
	}
	return &locationEntry{
		temperature: domain.NewFilledWindow(r.windowSize, r.defaultTemperature),
		humidity:    domain.NewFilledWindow(r.windowSize, r.defaultHumidity),
	}
}

// Locations returns the tracked ids in lexical order.
func (r *MemoryRegistry) Locations(ctx context.Context) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}

func (r *MemoryRegistry) EvictIfStale(ctx context.Context, id string, now time.Time, timeout time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[id]
	if !exists || now.Sub(entry.lastSeen) < timeout {
		return false
	}
	delete(r.entries, id)
	return true
}

// Evict removes id unconditionally. Evicting an unknown id is a no-op.
func (r *MemoryRegistry) Evict(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return false
	}
	delete(r.entries, id)
	return true
}

// Readings returns one point-in-time reading per location, ordered by id.
// Locations with an empty window are left out.
func (r *MemoryRegistry) Readings(ctx context.Context) []domain.LocationReading {
	r.mu.RLock()
	defer r.mu.RUnlock()

	readings := make([]domain.LocationReading, 0, len(r.entries))
	for _, id := range slices.Sorted(maps.Keys(r.entries)) {
		entry := r.entries[id]
		avgTemperature, ok := entry.temperature.Average()
		if !ok {
			continue
		}
		avgHumidity, _ := entry.humidity.Average()
		readings = append(readings, domain.LocationReading{
			ID:             id,
			AvgTemperature: avgTemperature,
			AvgHumidity:    avgHumidity,
			Samples:        entry.samples,
			Warm:           entry.temperature.Full(),
			LastSeen:       entry.lastSeen,
		})
	}
	return readings
}

func (r *MemoryRegistry) Len(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
