package usecases

import (
	"context"

	"thermostat-server/internal/climate/domain"
)

//go:generate mockgen -source=actuator_port.go -destination=../../../test/unit/doubles/climate/usecases/actuator_port_mock.go -package=usecases -mock_names=Actuator=MockActuator

// Actuator turns a mode into exclusive output states. Implementations must
// never leave two of heat, cool and fan asserted at once.
type Actuator interface {
	SetMode(ctx context.Context, mode domain.Mode) error
}
