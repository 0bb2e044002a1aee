package domain

import (
	"fmt"
	"strings"
	"time"
)

// Mode is the exclusive actuation mode of the shared heating/cooling/fan set.
type Mode string

const (
	ModeOff  Mode = "off"
	ModeHeat Mode = "heat"
	ModeCool Mode = "cool"
	ModeFan  Mode = "fan"
)

var Modes = []Mode{ModeOff, ModeHeat, ModeCool, ModeFan}

func ParseMode(value string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(value)))
	switch mode {
	case ModeOff, ModeHeat, ModeCool, ModeFan:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
	}
}

func (m Mode) String() string { return string(m) }

// DwellTimes is the minimum time a mode stays asserted before the next
// re-evaluation may change it.
type DwellTimes map[Mode]time.Duration

func DefaultDwellTimes() DwellTimes {
	return DwellTimes{
		ModeHeat: 300 * time.Second,
		ModeCool: 300 * time.Second,
		ModeFan:  300 * time.Second,
		ModeOff:  120 * time.Second,
	}
}

func (d DwellTimes) For(mode Mode) time.Duration {
	return d[mode]
}
