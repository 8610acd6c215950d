package events

import (
	"fmt"
	"sort"
)

// Handler receives a dispatched event.
type Handler func(Event)

type subscription struct {
	id       int
	priority int
	once     bool
	fn       Handler
	removed  bool
}

// Bus dispatches events to subscribers. Each game session owns its own
// bus; there is no process-wide instance. The bus is not safe for
// concurrent use, matching the core's single-threaded model.
type Bus struct {
	handlers      map[Type][]*subscription
	nextID        int
	emittingError bool
	listenerErrs  int
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: map[Type][]*subscription{}}
}

// Option configures a subscription.
type Option func(*subscription)

// WithPriority orders dispatch; higher priorities fire first.
func WithPriority(p int) Option {
	return func(s *subscription) { s.priority = p }
}

// Once removes the subscription after its first delivery.
func Once() Option {
	return func(s *subscription) { s.once = true }
}

// Subscribe registers a handler for one event type and returns an
// unsubscribe closure.
func (b *Bus) Subscribe(t Type, fn Handler, opts ...Option) func() {
	b.nextID++
	sub := &subscription{id: b.nextID, fn: fn}
	for _, opt := range opts {
		opt(sub)
	}
	b.handlers[t] = append(b.handlers[t], sub)
	return func() {
		sub.removed = true
		b.compact(t)
	}
}

// Emit dispatches the event to all matching subscribers in priority
// order. A panicking handler is counted and reported as an Error event;
// it never prevents later handlers from running.
func (b *Bus) Emit(ev Event) {
	t := ev.EventType()
	subs := b.handlers[t]
	if len(subs) == 0 {
		return
	}
	ordered := make([]*subscription, 0, len(subs))
	for _, s := range subs {
		if !s.removed {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].priority > ordered[j].priority
	})

	for _, s := range ordered {
		if s.removed {
			continue
		}
		if s.once {
			s.removed = true
		}
		b.deliver(t, s, ev)
	}
	b.compact(t)
}

func (b *Bus) deliver(t Type, s *subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.listenerErrs++
			// A faulty error listener must not recurse forever.
			if t == TypeError || b.emittingError {
				return
			}
			b.emittingError = true
			b.Emit(Error{Err: fmt.Errorf("listener panic: %v", r), Source: t})
			b.emittingError = false
		}
	}()
	s.fn(ev)
}

// ListenerErrors reports how many handler panics were recovered.
func (b *Bus) ListenerErrors() int {
	return b.listenerErrs
}

// Close drops all subscriptions.
func (b *Bus) Close() {
	b.handlers = map[Type][]*subscription{}
}

func (b *Bus) compact(t Type) {
	subs := b.handlers[t]
	kept := subs[:0]
	for _, s := range subs {
		if !s.removed {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(b.handlers, t)
		return
	}
	b.handlers[t] = kept
}
