package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"thermostat-server/internal/infra/mqtt"
)

// LogPinDriver records pin levels in memory and logs every write. It stands
// in for hardware during development.
type LogPinDriver struct {
	mu     sync.Mutex
	levels map[int]Level
}

func NewLogPinDriver() *LogPinDriver {
	return &LogPinDriver{levels: make(map[int]Level)}
}

func (d *LogPinDriver) Write(_ context.Context, pin int, level Level) error {
	d.mu.Lock()
	d.levels[pin] = level
	d.mu.Unlock()
	slog.Info("relay pin written", slog.Int("pin", pin), slog.String("level", level.String()))
	return nil
}

func (d *LogPinDriver) Level(pin int) (Level, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	level, ok := d.levels[pin]
	return level, ok
}

type PinCommand struct {
	Pin   int    `json:"pin"`
	Level string `json:"level"`
}

// MQTTPinDriver publishes pin writes to "<topic>/<pin>" for a remote relay
// board.
type MQTTPinDriver struct {
	client mqtt.Client
	topic  string
}

func NewMQTTPinDriver(client mqtt.Client, topic string) *MQTTPinDriver {
	return &MQTTPinDriver{client: client, topic: topic}
}

func (d *MQTTPinDriver) Write(ctx context.Context, pin int, level Level) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.client.Publish(fmt.Sprintf("%s/%d", d.topic, pin), PinCommand{Pin: pin, Level: level.String()})
}
