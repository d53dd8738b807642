package eventbus

import (
	"context"
	"sync"

	"pkt.systems/livecoder/schema"
	"pkt.systems/pslog"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventNotice carries a user-facing message.
	EventNotice EventType = "notice"
	// EventState carries a session state transition.
	EventState EventType = "state"
)

// Event represents a host-facing event emitted by the controller.
type Event struct {
	Type   EventType
	Notice schema.Notice
	State  schema.StateEvent
}

// Bus fans events out to subscribers. Publishing never blocks; events are
// dropped for subscribers whose buffer is full.
type Bus struct {
	mu    sync.Mutex
	subs  map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[chan Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber and returns its channel and a cancel func
// that closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	b.log.Debug("eventbus subscribe", "subs", count)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
			b.log.Debug("eventbus unsubscribe")
		})
	}
}

// OnNotice publishes a notice.
func (b *Bus) OnNotice(notice schema.Notice) {
	b.publish(Event{Type: EventNotice, Notice: notice})
}

// OnStateChange publishes a session state transition.
func (b *Bus) OnStateChange(event schema.StateEvent) {
	b.publish(Event{Type: EventState, State: event})
}

func (b *Bus) publish(event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	dropped := 0
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.log.Trace("eventbus dropped", "type", event.Type, "count", dropped)
	}
}
