package domain

import (
	"fmt"
	"strings"
)

// Thresholds bound the comfort band and the tolerated spread between the
// hottest and the coldest location, all in the canonical unit.
type Thresholds struct {
	Low    float64
	High   float64
	Spread float64
}

func (t Thresholds) Midpoint() float64 {
	return (t.Low + t.High) / 2
}

// ColdStart decides how a freshly discovered location contributes to the
// aggregate before its window has been filled with real samples.
type ColdStart string

const (
	// ColdStartPrefill fills new windows with neutral defaults.
	ColdStartPrefill ColdStart = "prefill"
	// ColdStartExclude keeps new windows empty and leaves the location out of
	// the aggregate until the window is full.
	ColdStartExclude ColdStart = "exclude"
)

func ParseColdStart(value string) (ColdStart, error) {
	switch ColdStart(strings.ToLower(strings.TrimSpace(value))) {
	case ColdStartPrefill:
		return ColdStartPrefill, nil
	case ColdStartExclude:
		return ColdStartExclude, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownColdStart, value)
	}
}
