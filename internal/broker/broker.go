// Package broker fans out change notifications to in-process subscribers,
// optionally bridged across server instances through Redis.
package broker

import (
	"context"
	"sync"
)

// Topics used by the server.
const (
	TopicListings = "listings"
	TopicIdentity = "identity"
)

// Event is a change notification. Subscribers re-read state; events carry no payload beyond ids.
type Event struct {
	Topic   string `json:"topic"`
	Kind    string `json:"kind"`
	ID      string `json:"id,omitempty"`
	Account string `json:"account,omitempty"`
}

// Broker delivers events by topic.
type Broker interface {
	Publish(ctx context.Context, ev Event)
	// Subscribe returns a channel of events for topic and a cancel func that
	// unsubscribes and closes the channel.
	Subscribe(topic string) (<-chan Event, func())
}

// subscriberBuffer bounds how many events a slow subscriber may lag behind.
const subscriberBuffer = 16

// Local is an in-process broker. Delivery never blocks the publisher:
// a full subscriber channel drops the event.
type Local struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewLocal creates an in-process broker.
func NewLocal() *Local {
	return &Local{subs: make(map[string]map[chan Event]struct{})}
}

// Publish delivers ev to every current subscriber of ev.Topic.
func (l *Local) Publish(_ context.Context, ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ch := range l.subs[ev.Topic] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a subscriber for topic.
func (l *Local) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	l.mu.Lock()
	if l.subs[topic] == nil {
		l.subs[topic] = make(map[chan Event]struct{})
	}
	l.subs[topic][ch] = struct{}{}
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs[topic], ch)
			if len(l.subs[topic]) == 0 {
				delete(l.subs, topic)
			}
			l.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of subscribers on topic.
func (l *Local) Subscribers(topic string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs[topic])
}
