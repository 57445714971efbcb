package events

import (
	"context"
	"fmt"

	"github.com/resys-shop/backend/internal/logger"
)

// Bus delivers committed domain events to their consumers.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
}

// Handler consumes one delivered event. Handlers must be idempotent.
type Handler func(ctx context.Context, ev Event)

// InProcBus is the single-process bus: a buffered channel with one
// dispatching goroutine, mirroring the shape of the Redis bus so the two
// are interchangeable at wiring time.
type InProcBus struct {
	log *logger.Logger
	ch  chan Event
}

func NewInProcBus(log *logger.Logger, buffer int) *InProcBus {
	if buffer <= 0 {
		buffer = 256
	}
	return &InProcBus{
		log: log.With("service", "InProcBus"),
		ch:  make(chan Event, buffer),
	}
}

func (b *InProcBus) Publish(ctx context.Context, ev Event) error {
	select {
	case b.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("event bus full, dropping %s", ev.EventName())
	}
}

// StartConsumer dispatches queued events to onEvent until ctx is done.
func (b *InProcBus) StartConsumer(ctx context.Context, onEvent Handler) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-b.ch:
				onEvent(ctx, ev)
			}
		}
	}()
}

// Outbox buffers events appended during a command so they are published
// only after the surrounding transaction commits. A failed publish is
// logged, not surfaced: the dirty flags on the owning rows let the work be
// re-triggered, preserving at-least-once semantics.
type Outbox struct {
	pending []Event
}

func (o *Outbox) Append(ev Event) {
	o.pending = append(o.pending, ev)
}

func (o *Outbox) Pending() []Event {
	return o.pending
}

func (o *Outbox) PublishAll(ctx context.Context, bus Bus, log *logger.Logger) {
	for _, ev := range o.pending {
		if err := bus.Publish(ctx, ev); err != nil && log != nil {
			log.Warn("event publish failed", "event", ev.EventName(), "error", err)
		}
	}
	o.pending = nil
}
