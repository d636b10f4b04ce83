package messaging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	contractsv1 "atomsi/contracts/gen/events/v1"
)

const moduleName = "internal/platform/messaging"

// DefaultQueueSize bounds each subscriber queue when Options.QueueSize is unset.
const DefaultQueueSize = 256

var ErrBusClosed = errors.New("event bus is closed")

// OverflowPolicy decides what happens when a subscriber queue is full.
type OverflowPolicy string

const (
	// OverflowDropOldest evicts the oldest queued event to admit the new one.
	OverflowDropOldest OverflowPolicy = "drop_oldest"
	// OverflowDisconnect closes the lagging subscription.
	OverflowDisconnect OverflowPolicy = "disconnect"
)

func ParseOverflowPolicy(raw string) (OverflowPolicy, bool) {
	switch OverflowPolicy(raw) {
	case OverflowDropOldest, "":
		return OverflowDropOldest, true
	case OverflowDisconnect:
		return OverflowDisconnect, true
	default:
		return "", false
	}
}

type Options struct {
	QueueSize int
	Overflow  OverflowPolicy
	Logger    *slog.Logger
	Meter     metric.Meter
}

// Bus fans DomainEvents out to filtered subscribers.
// Publish never blocks on a slow subscriber: each subscriber owns a bounded
// queue and overflow is resolved by the configured policy.
type Bus struct {
	// mu serializes subscribe/unsubscribe. Publishers read the snapshot only.
	mu       sync.Mutex
	snapshot atomic.Pointer[[]*Subscription]
	nextID   atomic.Uint64
	closed   atomic.Bool

	queueSize int
	overflow  OverflowPolicy
	logger    *slog.Logger
	dropLog   rate.Sometimes

	published   metric.Int64Counter
	dropped     metric.Int64Counter
	subscribers metric.Int64UpDownCounter
}

func NewBus(opts Options) *Bus {
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	overflow := opts.Overflow
	if overflow == "" {
		overflow = OverflowDropOldest
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	meter := opts.Meter
	if meter == nil {
		meter = otel.Meter("atomsi/event-bus")
	}

	bus := &Bus{
		queueSize: queueSize,
		overflow:  overflow,
		logger:    logger,
		dropLog:   rate.Sometimes{First: 5, Interval: 10 * time.Second},
	}
	// Instrument creation only fails on invalid names; nil instruments are skipped.
	bus.published, _ = meter.Int64Counter("event_bus.published",
		metric.WithDescription("Domain events accepted by the bus."))
	bus.dropped, _ = meter.Int64Counter("event_bus.dropped",
		metric.WithDescription("Domain events evicted from full subscriber queues."))
	bus.subscribers, _ = meter.Int64UpDownCounter("event_bus.subscribers",
		metric.WithDescription("Currently attached subscribers."))

	empty := make([]*Subscription, 0)
	bus.snapshot.Store(&empty)
	return bus
}

// Subscription is one observer's bounded, ordered view of the event stream.
type Subscription struct {
	id     uint64
	bus    *Bus
	filter map[contractsv1.EventType]struct{}

	// mu serializes producers on this queue so drop-oldest keeps FIFO order.
	mu      sync.Mutex
	ch      chan contractsv1.DomainEvent
	closed  bool
	dropped atomic.Uint64
}

func (s *Subscription) ID() uint64 { return s.id }

// Events is closed when the subscription is closed or the bus shuts down.
func (s *Subscription) Events() <-chan contractsv1.DomainEvent { return s.ch }

// Dropped counts events evicted from this subscriber's queue.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Matches reports whether the filter admits the event type. An empty filter admits all.
func (s *Subscription) Matches(eventType contractsv1.EventType) bool {
	if len(s.filter) == 0 {
		return true
	}
	_, ok := s.filter[eventType]
	return ok
}

func (s *Subscription) Close() {
	s.bus.detach(s)
	s.shutdown()
}

func (s *Subscription) shutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	close(s.ch)
	return true
}

// Subscribe registers an observer. An empty filter receives every event type.
func (b *Bus) Subscribe(filter ...contractsv1.EventType) (*Subscription, error) {
	if b.closed.Load() {
		return nil, ErrBusClosed
	}
	sub := &Subscription{
		id:  b.nextID.Add(1),
		bus: b,
		ch:  make(chan contractsv1.DomainEvent, b.queueSize),
	}
	if len(filter) > 0 {
		sub.filter = make(map[contractsv1.EventType]struct{}, len(filter))
		for _, eventType := range filter {
			sub.filter[eventType] = struct{}{}
		}
	}

	b.mu.Lock()
	if b.closed.Load() {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	current := *b.snapshot.Load()
	next := make([]*Subscription, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, sub)
	b.snapshot.Store(&next)
	b.mu.Unlock()

	if b.subscribers != nil {
		b.subscribers.Add(context.Background(), 1)
	}
	b.logger.Debug("event bus subscriber attached",
		"event", "event_bus_subscribe",
		"module", moduleName,
		"layer", "platform",
		"subscriber_id", sub.id,
		"filter_size", len(sub.filter),
	)
	return sub, nil
}

// Publish delivers event to every matching subscriber without blocking.
func (b *Bus) Publish(ctx context.Context, event contractsv1.DomainEvent) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	subs := *b.snapshot.Load()
	for _, sub := range subs {
		if !sub.Matches(event.EventType) {
			continue
		}
		b.deliver(ctx, sub, event)
	}
	if b.published != nil {
		b.published.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", string(event.EventType))))
	}
	return nil
}

func (b *Bus) deliver(ctx context.Context, sub *Subscription, event contractsv1.DomainEvent) {
	disconnect := false

	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	select {
	case sub.ch <- event:
		sub.mu.Unlock()
		return
	default:
	}

	if b.overflow == OverflowDisconnect {
		disconnect = true
	} else {
		select {
		case <-sub.ch:
			sub.dropped.Add(1)
		default:
		}
		select {
		case sub.ch <- event:
		default:
			sub.dropped.Add(1)
		}
	}
	sub.mu.Unlock()

	if b.dropped != nil {
		b.dropped.Add(ctx, 1, metric.WithAttributes(
			attribute.String("event_type", string(event.EventType)),
			attribute.String("policy", string(b.overflow)),
		))
	}
	b.dropLog.Do(func() {
		b.logger.Warn("subscriber queue full",
			"event", "event_bus_overflow",
			"module", moduleName,
			"layer", "platform",
			"subscriber_id", sub.id,
			"event_type", string(event.EventType),
			"policy", string(b.overflow),
			"dropped_total", sub.dropped.Load(),
		)
	})

	if disconnect {
		sub.Close()
	}
}

func (b *Bus) detach(target *Subscription) {
	b.mu.Lock()
	current := *b.snapshot.Load()
	next := make([]*Subscription, 0, len(current))
	found := false
	for _, sub := range current {
		if sub == target {
			found = true
			continue
		}
		next = append(next, sub)
	}
	if found {
		b.snapshot.Store(&next)
	}
	b.mu.Unlock()

	if found && b.subscribers != nil {
		b.subscribers.Add(context.Background(), -1)
	}
}

func (b *Bus) SubscriberCount() int {
	return len(*b.snapshot.Load())
}

func (b *Bus) Capacity() int {
	return b.queueSize
}

// Close detaches and closes every subscription. Further publishes fail.
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.mu.Lock()
	current := *b.snapshot.Load()
	empty := make([]*Subscription, 0)
	b.snapshot.Store(&empty)
	b.mu.Unlock()

	for _, sub := range current {
		sub.shutdown()
	}
	if b.subscribers != nil {
		b.subscribers.Add(context.Background(), -int64(len(current)))
	}
	b.logger.Info("event bus closed",
		"event", "event_bus_closed",
		"module", moduleName,
		"layer", "platform",
		"subscribers", len(current),
	)
}
