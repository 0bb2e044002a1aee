package udp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"thermostat-server/internal/data_plane/dto"
)

const (
	DefaultBufferSize  = 1024
	DefaultReadTimeout = time.Second
)

type SourceOpts struct {
	Address     string
	BufferSize  int
	ReadTimeout time.Duration
}

// Listen binds a UDP socket on opts.Address.
func Listen(opts SourceOpts) (*Source, error) {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	addr, err := net.ResolveUDPAddr("udp", opts.Address)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", opts.Address, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", opts.Address, err)
	}
	slog.Info("listening for sensor datagrams", slog.String("address", conn.LocalAddr().String()))

	return &Source{
		conn:        conn,
		buffer:      make([]byte, opts.BufferSize),
		readTimeout: opts.ReadTimeout,
	}, nil
}

// Source reads one datagram per Receive. It is not safe for concurrent
// receivers.
type Source struct {
	conn        *net.UDPConn
	buffer      []byte
	readTimeout time.Duration
}

func (s *Source) Name() string { return "udp" }

func (s *Source) Addr() net.Addr { return s.conn.LocalAddr() }

// Receive waits at most the read timeout so callers observe cancellation
// between reads.
func (s *Source) Receive(ctx context.Context) (dto.Datagram, error) {
	if err := ctx.Err(); err != nil {
		return dto.Datagram{}, err
	}
	deadline := time.Now().Add(s.readTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return dto.Datagram{}, fmt.Errorf("setting read deadline: %w", err)
	}

	n, origin, err := s.conn.ReadFromUDP(s.buffer)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return dto.Datagram{}, dto.ErrNoDatagram
	}
	if err != nil {
		return dto.Datagram{}, fmt.Errorf("reading datagram: %w", err)
	}

	payload := make([]byte, n)
	copy(payload, s.buffer[:n])
	return dto.Datagram{Payload: payload, Origin: origin.String(), ReceivedAt: time.Now()}, nil
}

func (s *Source) Close() error {
	return s.conn.Close()
}

// Sender emits datagrams to a fixed destination.
type Sender struct {
	conn *net.UDPConn
}

func Dial(address string) (*Sender, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", address, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", address, err)
	}
	return &Sender{conn: conn}, nil
}

func (s *Sender) Send(payload []byte) error {
	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("sending datagram: %w", err)
	}
	return nil
}

func (s *Sender) Close() error {
	return s.conn.Close()
}
