// Package stream is an in-process publish/subscribe broker that fans a
// session's vitals snapshots out to its websocket subscribers. It adapts the
// shape of the teacher's NATS-backed market feed — symbol-keyed subscriber
// sets, each with its own update channel — to a single process with no
// external broker: the "topic" here is a session id instead of a ticker
// symbol, and Publish delivers in-process instead of over NATS.
package stream

import (
	"sync"

	"github.com/google/uuid"

	"github.com/solaris-clearae/edflow/internal/sim"
)

// Subscriber receives every Vitals snapshot published for the session it
// subscribed to, until it unsubscribes or the broker closes its channel.
type Subscriber struct {
	ID      uuid.UUID
	Updates chan sim.Vitals
}

// Broker fans out vitals snapshots to per-session subscriber sets. It is
// safe for concurrent use by multiple goroutines.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]map[uuid.UUID]*Subscriber
}

// NewBroker returns an empty Broker.
func NewBroker() *Broker {
	return &Broker{subscribers: make(map[string]map[uuid.UUID]*Subscriber)}
}

// Subscribe registers a new subscriber for sessionID's vitals updates. The
// returned Subscriber's Updates channel is buffered by one so a slow or
// disconnected reader never blocks the publisher — while the buffered
// snapshot is undrained, newer ones are dropped for that subscriber (vitals
// are always re-derivable, never a queue of discrete events that must not be
// dropped).
func (b *Broker) Subscribe(sessionID string) *Subscriber {
	sub := &Subscriber{ID: uuid.New(), Updates: make(chan sim.Vitals, 1)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribers[sessionID] == nil {
		b.subscribers[sessionID] = make(map[uuid.UUID]*Subscriber)
	}
	b.subscribers[sessionID][sub.ID] = sub
	return sub
}

// Unsubscribe removes and closes a subscriber, idempotent if already
// removed.
func (b *Broker) Unsubscribe(sessionID string, subID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[sessionID]
	if !ok {
		return
	}
	if sub, ok := subs[subID]; ok {
		close(sub.Updates)
		delete(subs, subID)
	}
	if len(subs) == 0 {
		delete(b.subscribers, sessionID)
	}
}

// Publish delivers vitals to every current subscriber of sessionID. A
// subscriber whose buffer is already full (it hasn't drained the previous
// snapshot yet) is skipped for this tick rather than blocked on.
func (b *Broker) Publish(sessionID string, vitals sim.Vitals) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers[sessionID] {
		select {
		case sub.Updates <- vitals:
		default:
		}
	}
}
