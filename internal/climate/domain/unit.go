package domain

import (
	"fmt"
	"strings"
)

type Unit string

const (
	UnitFahrenheit Unit = "fahrenheit"
	UnitCelsius    Unit = "celsius"
)

func ParseUnit(value string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(value))) {
	case UnitFahrenheit, "f":
		return UnitFahrenheit, nil
	case UnitCelsius, "c":
		return UnitCelsius, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, value)
	}
}

func (u Unit) FromCelsius(c float64) float64 {
	if u == UnitCelsius {
		return c
	}
	return c*1.8 + 32
}

func (u Unit) Symbol() string {
	if u == UnitCelsius {
		return "C"
	}
	return "F"
}
