/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import "sync"

// EventType enumerates event categories.
type EventType string

const (
	EventSequenceGenerated EventType = "sequence.generated"
	EventSequenceDegraded  EventType = "sequence.degraded"
	EventSequenceFailed    EventType = "sequence.failed"

	// Spec lifecycle events. The type strings are part of the external
	// contract: the NATS bridge exposes them verbatim as subject suffixes.
	EventSpecCreated EventType = "spec.created"
	EventSpecUpdated EventType = "spec.updated"
	EventSpecDeleted EventType = "spec.deleted"

	// Cache invalidation events
	EventTrackCreated EventType = "cache.track_created"
	EventTrackUpdated EventType = "cache.track_updated"
	EventTrackDeleted EventType = "cache.track_deleted"

	// Audit events (for operations that need explicit audit logging)
	EventAuditSpecImport EventType = "audit.spec.import"
)

// Payload generic event payload.
type Payload map[string]any

// Subscriber receives event payloads.
type Subscriber chan Payload

// Bus implements a simple in-process pubsub.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]Subscriber)}
}

// Subscribe registers a subscriber for event type.
func (b *Bus) Subscribe(eventType EventType) Subscriber {
	ch := make(Subscriber, 8)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends payload to subscribers. Slow subscribers drop events rather
// than block the publisher.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	b.mu.RLock()
	subs := append([]Subscriber(nil), b.subs[eventType]...)
	b.mu.RUnlock()
	for _, sub := range subs {
		select {
		case sub <- payload:
		default:
		}
	}
}

// Unsubscribe removes the subscriber.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	b.subs[eventType] = subs
	close(sub)
}
