package dto

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"thermostat-server/internal/climate/domain"
)

const (
	fieldSeparator = ", "
	_fieldCount    = 3
)

// ErrNoDatagram is returned by sources when nothing arrived within their read
// window. It is not a transport failure.
var ErrNoDatagram = errors.New("no datagram received")

// Datagram is one raw inbound message together with where and when it was
// received.
type Datagram struct {
	Payload    []byte
	Origin     string
	ReceivedAt time.Time
}

// ParseSample decodes "<location>, <temperature-celsius>, <humidity-percent>".
// The numeric fields are taken from the right so a location name may itself
// contain the separator.
func ParseSample(payload []byte) (domain.Sample, error) {
	if !utf8.Valid(payload) {
		return domain.Sample{}, fmt.Errorf("%w: payload is not valid utf-8", domain.ErrMalformedDatagram)
	}
	message := strings.TrimRight(string(bytes.TrimRight(payload, "\x00")), " \r\n\t")

	humidityAt := strings.LastIndex(message, fieldSeparator)
	if humidityAt < 0 {
		return domain.Sample{}, fmt.Errorf("%w: expected %d fields in %q", domain.ErrMalformedDatagram, _fieldCount, message)
	}
	temperatureAt := strings.LastIndex(message[:humidityAt], fieldSeparator)
	if temperatureAt < 0 {
		return domain.Sample{}, fmt.Errorf("%w: expected %d fields in %q", domain.ErrMalformedDatagram, _fieldCount, message)
	}

	location := message[:temperatureAt]
	if strings.TrimSpace(location) == "" {
		return domain.Sample{}, fmt.Errorf("%w: empty location in %q", domain.ErrMalformedDatagram, message)
	}

	temperature, err := parseField(message[temperatureAt+len(fieldSeparator) : humidityAt])
	if err != nil {
		return domain.Sample{}, fmt.Errorf("%w: temperature: %w", domain.ErrMalformedDatagram, err)
	}
	humidity, err := parseField(message[humidityAt+len(fieldSeparator):])
	if err != nil {
		return domain.Sample{}, fmt.Errorf("%w: humidity: %w", domain.ErrMalformedDatagram, err)
	}

	return domain.Sample{
		Location:     location,
		TemperatureC: temperature,
		HumidityPct:  humidity,
	}, nil
}

// FormatSample encodes a sample the way sensor nodes do, one fractional digit
// per numeric field.
func FormatSample(sample domain.Sample) []byte {
	return []byte(fmt.Sprintf("%s%s%.1f%s%.1f", sample.Location, fieldSeparator, sample.TemperatureC, fieldSeparator, sample.HumidityPct))
}

func parseField(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty field")
	}
	return strconv.ParseFloat(raw, 64)
}
