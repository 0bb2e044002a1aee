package usecases

import (
	"context"
	"time"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/data_plane/dto"
)

//go:generate mockgen -source=./api.go -destination=../../../test/unit/doubles/climate/usecases/api_mock.go -package=usecases

type SnapshotSource interface {
	Snapshot(ctx context.Context) (domain.AggregateSnapshot, error)
}

type ModeSource interface {
	State() EngineState
}

// DatagramSource yields raw inbound messages. Receive returns
// dto.ErrNoDatagram when its read window elapsed without input.
type DatagramSource interface {
	Receive(ctx context.Context) (dto.Datagram, error)
	Name() string
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
