package async

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const _defaultReceiverCapacity = 64

type BrokerTopicName string

type BrokerMessage struct {
	Event string
	Value any
	Span  trace.Span
	Error error
}

type InternalBroker interface {
	Subscribe(topic BrokerTopicName) (Subscription, error)
	Unsubscribe(topic BrokerTopicName, subscription Subscription) error
	Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage) error
	Stop()
}

var _ InternalBroker = (*LocalBroker)(nil)

var ErrTopicNotFound = errors.New("topic not found")
var ErrSubscriptorNotFound = errors.New("subscriptor not found")

type BrokerOption func(*LocalBroker)

// WithReceiverCapacity sets the buffer of every receiver channel created by
// Subscribe.
func WithReceiverCapacity(capacity int) BrokerOption {
	return func(b *LocalBroker) {
		if capacity > 0 {
			b.capacity = capacity
		}
	}
}

func NewLocalBroker(opts ...BrokerOption) *LocalBroker {
	b := &LocalBroker{
		subscriptors: make(map[BrokerTopicName][]*subscriptor),
		capacity:     _defaultReceiverCapacity,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// LocalBroker is an in-process fan-out bus. Publishing never blocks: a
// subscriber whose receiver is full misses the message.
type LocalBroker struct {
	mu           sync.RWMutex
	subscriptors map[BrokerTopicName][]*subscriptor
	capacity     int
}

type subscriptor struct {
	active       bool
	subscription Subscription
}

type Subscription struct {
	ID       string
	Receiver chan BrokerMessage
}

func (b *LocalBroker) Subscribe(topic BrokerTopicName) (Subscription, error) {
	subscription := Subscription{
		ID:       uuid.NewString(),
		Receiver: make(chan BrokerMessage, b.capacity),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptors[topic] = append(b.subscriptors[topic], &subscriptor{subscription: subscription, active: true})
	return subscription, nil
}

func (b *LocalBroker) Unsubscribe(topic BrokerTopicName, subscription Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscriptors, ok := b.subscriptors[topic]
	if !ok {
		return ErrTopicNotFound
	}
	index := slices.IndexFunc(subscriptors, func(s *subscriptor) bool { return s.subscription.ID == subscription.ID })
	if index < 0 {
		return ErrSubscriptorNotFound
	}

	subscriptors[index].close()
	return nil
}

// Publish delivers msg to every active subscriber of topic. A topic exists
// once somebody has subscribed to it.
func (b *LocalBroker) Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage) error {
	msg.Span = trace.SpanFromContext(ctx)

	b.mu.RLock()
	defer b.mu.RUnlock()

	subscriptors, ok := b.subscriptors[topic]
	if !ok {
		return ErrTopicNotFound
	}
	for _, s := range subscriptors {
		if !s.active {
			continue
		}
		select {
		case s.subscription.Receiver <- msg:
		default:
			slog.Warn("subscriber is lagging, message dropped",
				slog.String("topic", string(topic)),
				slog.String("event", msg.Event),
				slog.String("subscription_id", s.subscription.ID))
		}
	}
	return nil
}

func (b *LocalBroker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subscriptors := range b.subscriptors {
		for _, s := range subscriptors {
			s.close()
		}
	}
}

// close must be called with the broker write lock held.
func (s *subscriptor) close() {
	if !s.active {
		return
	}
	s.active = false
	close(s.subscription.Receiver)
}
