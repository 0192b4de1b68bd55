package agent

import (
	"log"
	"sync"
)

// EventType enumerates the lifecycle and per-tool milestones published on
// the event bus (spec.md §4.4 "Event bus").
type EventType string

const (
	EventStatusChange     EventType = "status_change"
	EventAnalysisComplete EventType = "analysis_complete"
	EventToolStart        EventType = "tool_start"
	EventToolComplete     EventType = "tool_complete"
	EventToolFailed       EventType = "tool_failed"
	EventToolSkipped      EventType = "tool_skipped"
	EventAgentComplete    EventType = "agent_complete"
	EventError            EventType = "error"

	// EventState is the synthetic replay event a new subscriber receives
	// carrying the current state snapshot (spec.md §4.4).
	EventState EventType = "state"
)

// Event is published to every subscriber in publication order (spec.md
// §4.4).
type Event struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// subscriberQueueSize is the bounded capacity of each subscriber's channel
// (spec.md §9: "prefer a channel/queue per subscriber with bounded
// capacity; on overflow, drop oldest with a warning").
const subscriberQueueSize = 64

// EventBus fans events out to subscribers, each through its own bounded
// channel so one slow subscriber cannot block delivery to the others
// (spec.md §9, grounded on the teacher's per-entity map+mutex shape in
// internal/session.Store, expressed here as per-subscriber channels rather
// than the out-of-scope SSE transport itself).
type EventBus struct {
	mu          sync.Mutex
	subscribers map[int]chan Event
	nextID      int
	snapshot    func() Event // produces the synthetic replay "state" event
}

// NewEventBus creates an EventBus. snapshot is called once per new
// subscriber to build its initial replay event.
func NewEventBus(snapshot func() Event) *EventBus {
	return &EventBus{
		subscribers: make(map[int]chan Event),
		snapshot:    snapshot,
	}
}

// Subscribe registers a new subscriber and immediately replays the current
// snapshot to it. Returns the channel to read from and an unsubscribe
// function.
func (b *EventBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberQueueSize)
	b.subscribers[id] = ch
	b.mu.Unlock()

	if b.snapshot != nil {
		select {
		case ch <- b.snapshot():
		default:
		}
	}

	unsubscribe := func() {
		b.mu.Lock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
		b.mu.Unlock()
	}
	return ch, unsubscribe
}

// Publish delivers ev to every current subscriber in publication order. A
// subscriber whose channel is full has its oldest buffered event dropped
// (with a warning) to make room, rather than blocking the publisher.
func (b *EventBus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
				log.Printf("[EventBus] subscriber %d overflowed; dropped oldest event", id)
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
