// Package events implements a small in-memory publish/subscribe bus used to
// notify consumers about proposal lifecycle changes. Delivery is per
// subscriber over buffered channels; a slow subscriber blocks only its own
// channel send.
package events

import (
	"sync"
	"time"

	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/confidential-tally/types"
)

const queueSize = 32

// SubscriberID identifies a single subscription on the bus.
type SubscriberID int

// HandlerFunc is a callback invoked for every delivered event.
type HandlerFunc func(Event)

// Event is a typed notification with its payload and emission time.
type Event struct {
	Timestamp time.Time
	Data      any
	Type      types.EventType
}

// New builds an event with the current timestamp.
func New(eventType types.EventType, data any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type subscriber struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
}

func (s *subscriber) deliver(evt Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	s.ch <- evt
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Bus routes published events to the subscribers of their type.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[types.EventType]map[SubscriberID]*subscriber
	lastSubID   SubscriberID
}

// NewBus returns an empty bus ready for use.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[types.EventType]map[SubscriberID]*subscriber),
	}
}

// Subscribe registers a channel subscription for the given event type.
func (b *Bus) Subscribe(eventType types.EventType) (SubscriberID, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &subscriber{ch: make(chan Event, queueSize)}
	b.lastSubID++
	id := b.lastSubID
	if _, ok := b.subscribers[eventType]; !ok {
		b.subscribers[eventType] = make(map[SubscriberID]*subscriber)
	}
	b.subscribers[eventType][id] = sub
	return id, sub.ch
}

// SubscribeFunc registers a callback subscription for the given event type.
// The callback runs on a dedicated goroutine that exits on Unsubscribe or
// Stop.
func (b *Bus) SubscribeFunc(eventType types.EventType, fn HandlerFunc) SubscriberID {
	id, ch := b.Subscribe(eventType)
	go func() {
		for evt := range ch {
			fn(evt)
		}
	}()
	return id
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(eventType types.EventType, id SubscriberID) {
	b.mu.Lock()
	var toClose *subscriber
	if subs, ok := b.subscribers[eventType]; ok {
		if sub, ok := subs[id]; ok {
			toClose = sub
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.subscribers, eventType)
			}
		}
	}
	b.mu.Unlock()
	if toClose != nil {
		toClose.close()
	}
}

// Publish delivers an event to every subscriber of its type.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	subs := make([]*subscriber, 0, len(b.subscribers[evt.Type]))
	for _, sub := range b.subscribers[evt.Type] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()
	for _, sub := range subs {
		sub.deliver(evt)
	}
	log.Debugw("event published", "type", string(evt.Type), "subscribers", len(subs))
}

// Stop closes all subscriber channels and clears the bus. The bus remains
// usable for new subscriptions afterwards.
func (b *Bus) Stop() {
	b.mu.Lock()
	old := b.subscribers
	b.subscribers = make(map[types.EventType]map[SubscriberID]*subscriber)
	b.mu.Unlock()
	for _, subs := range old {
		for _, sub := range subs {
			sub.close()
		}
	}
}
