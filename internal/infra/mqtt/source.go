package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"thermostat-server/internal/data_plane/dto"
)

const (
	_sourceQoS            = 0
	_defaultSourceBuffer  = 256
	_defaultSourceTimeout = time.Second
)

type SourceOpts struct {
	Topic       string
	BufferSize  int
	ReadTimeout time.Duration
}

// NewSource subscribes to opts.Topic and queues every message as a datagram.
// Messages arriving while the queue is full are dropped.
func NewSource(client Client, opts SourceOpts) (*Source, error) {
	if opts.BufferSize <= 0 {
		opts.BufferSize = _defaultSourceBuffer
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = _defaultSourceTimeout
	}

	s := &Source{
		client:      client,
		topic:       opts.Topic,
		readTimeout: opts.ReadTimeout,
		datagrams:   make(chan dto.Datagram, opts.BufferSize),
	}
	if err := client.Subscribe(opts.Topic, _sourceQoS, s.onMessage); err != nil {
		return nil, fmt.Errorf("subscribing source: %w", err)
	}
	return s, nil
}

type Source struct {
	client      Client
	topic       string
	readTimeout time.Duration
	datagrams   chan dto.Datagram
}

func (s *Source) Name() string { return "mqtt" }

func (s *Source) Receive(ctx context.Context) (dto.Datagram, error) {
	timer := time.NewTimer(s.readTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return dto.Datagram{}, ctx.Err()
	case d := <-s.datagrams:
		return d, nil
	case <-timer.C:
		return dto.Datagram{}, dto.ErrNoDatagram
	}
}

func (s *Source) onMessage(_ Client, msg Message) {
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())

	select {
	case s.datagrams <- dto.Datagram{Payload: payload, Origin: msg.Topic(), ReceivedAt: time.Now()}:
	default:
		slog.Warn("mqtt source queue full, message dropped", slog.String("topic", msg.Topic()))
	}
	msg.Ack()
}
