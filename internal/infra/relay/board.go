package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/climate/usecases"
)

type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// PinDriver sets one output pin to a level.
type PinDriver interface {
	Write(ctx context.Context, pin int, level Level) error
}

type Pins struct {
	Heat int
	Cool int
	Fan  int
}

func (p Pins) Validate() error {
	if p.Heat == p.Cool || p.Heat == p.Fan || p.Cool == p.Fan {
		return fmt.Errorf("relay pins must be distinct, got heat=%d cool=%d fan=%d", p.Heat, p.Cool, p.Fan)
	}
	return nil
}

func (p Pins) forMode(mode domain.Mode) (int, bool) {
	switch mode {
	case domain.ModeHeat:
		return p.Heat, true
	case domain.ModeCool:
		return p.Cool, true
	case domain.ModeFan:
		return p.Fan, true
	default:
		return 0, false
	}
}

func NewRelayBoard(driver PinDriver, pins Pins, activeLow bool) (*RelayBoard, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}
	return &RelayBoard{
		driver:    driver,
		pins:      pins,
		activeLow: activeLow,
		asserted:  make(map[int]bool, 3),
	}, nil
}

var _ usecases.Actuator = (*RelayBoard)(nil)

// RelayBoard drives the heat, cool and fan relays so that at most one of them
// is asserted at any time.
type RelayBoard struct {
	mu        sync.Mutex
	driver    PinDriver
	pins      Pins
	activeLow bool
	mode      domain.Mode
	// synced is false until every pin has been written successfully
	synced   bool
	asserted map[int]bool
}

// SetMode de-asserts every other output before asserting the one for mode.
// Repeating the current mode writes nothing.
func (b *RelayBoard) SetMode(ctx context.Context, mode domain.Mode) error {
	if _, err := domain.ParseMode(string(mode)); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.synced && b.mode == mode {
		return nil
	}
	b.synced = false

	target, hasTarget := b.pins.forMode(mode)
	for _, pin := range []int{b.pins.Heat, b.pins.Cool, b.pins.Fan} {
		if hasTarget && pin == target {
			continue
		}
		if err := b.write(ctx, pin, false); err != nil {
			return fmt.Errorf("switching to %s: %w", mode, err)
		}
	}
	if hasTarget {
		if err := b.write(ctx, target, true); err != nil {
			return fmt.Errorf("switching to %s: %w", mode, err)
		}
	}

	b.mode = mode
	b.synced = true
	slog.Debug("relay board switched", slog.String("mode", mode.String()))
	return nil
}

func (b *RelayBoard) write(ctx context.Context, pin int, assert bool) error {
	if err := b.driver.Write(ctx, pin, b.level(assert)); err != nil {
		return fmt.Errorf("writing pin %d: %w", pin, err)
	}
	b.asserted[pin] = assert
	return nil
}

// level maps a logical state to the electrical one; active-low relays close
// on Low.
func (b *RelayBoard) level(assert bool) Level {
	if b.activeLow {
		return Level(!assert)
	}
	return Level(assert)
}

// Asserted reports which outputs are currently asserted.
func (b *RelayBoard) Asserted() map[domain.Mode]bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return map[domain.Mode]bool{
		domain.ModeHeat: b.asserted[b.pins.Heat],
		domain.ModeCool: b.asserted[b.pins.Cool],
		domain.ModeFan:  b.asserted[b.pins.Fan],
	}
}
