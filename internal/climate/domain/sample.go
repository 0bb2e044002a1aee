package domain

import (
	"fmt"
	"math"
	"strings"
)

// Sample is one decoded reading as reported by a sensor node. Temperature is
// always expressed in Celsius on the wire.
type Sample struct {
	Location     string
	TemperatureC float64
	HumidityPct  float64
}

func (s Sample) Validate() error {
	if strings.TrimSpace(s.Location) == "" {
		return fmt.Errorf("%w: empty location", ErrInvalidSample)
	}
	if !isFinite(s.TemperatureC) {
		return fmt.Errorf("%w: non-finite temperature %v", ErrInvalidSample, s.TemperatureC)
	}
	if !isFinite(s.HumidityPct) {
		return fmt.Errorf("%w: non-finite humidity %v", ErrInvalidSample, s.HumidityPct)
	}
	return nil
}

// Normalize converts the sample into a Measurement expressed in the given unit.
func (s Sample) Normalize(unit Unit) Measurement {
	return Measurement{
		Location:    strings.TrimSpace(s.Location),
		Temperature: unit.FromCelsius(s.TemperatureC),
		Humidity:    s.HumidityPct,
	}
}

// Measurement is a validated sample in the aggregator's canonical unit.
type Measurement struct {
	Location    string
	Temperature float64
	Humidity    float64
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
