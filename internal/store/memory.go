package store

import (
	"sync"
)

// subscriberBuffer is the channel capacity of each subscription.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore provides thread-safe storage with a publish-subscribe mechanism
// for real-time updates. Readings are keyed by sensor id, with new readings
// replacing previous values.
//
// Subscribers receive updates via buffered channels (buffer size 100). Updates
// are sent non-blocking; if a subscriber's buffer is full, the update is dropped
// for that subscriber to prevent blocking the monitor.
type MemoryStore struct {
	mu          sync.RWMutex
	readings    map[string]SensorReading
	order       []string
	decision    DecisionRecord
	hasDecision bool

	subscribers map[chan Event]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
//
// The store is immediately ready for use. No cleanup is required when done.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		readings:    make(map[string]SensorReading),
		subscribers: make(map[chan Event]struct{}),
	}
}

// UpdateReading stores a [SensorReading] and notifies all subscribers.
func (m *MemoryStore) UpdateReading(reading SensorReading) {
	m.mu.Lock()
	if _, ok := m.readings[reading.Sensor]; !ok {
		m.order = append(m.order, reading.Sensor)
	}
	m.readings[reading.Sensor] = reading
	m.mu.Unlock()

	m.notifySubscribers(Event{Type: EventReading, Reading: &reading})
}

// SetDecision stores a [DecisionRecord] and notifies all subscribers.
func (m *MemoryStore) SetDecision(decision DecisionRecord) {
	m.mu.Lock()
	m.decision = decision
	m.hasDecision = true
	m.mu.Unlock()

	m.notifySubscribers(Event{Type: EventDecision, Decision: &decision})
}

// Readings returns a snapshot of all stored readings in first-seen order.
//
// The returned slice is a copy; modifications do not affect the store.
func (m *MemoryStore) Readings() []SensorReading {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]SensorReading, 0, len(m.order))
	for _, sensor := range m.order {
		results = append(results, m.readings[sensor])
	}
	return results
}

// Decision returns the latest decision.
func (m *MemoryStore) Decision() (DecisionRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.decision, m.hasDecision
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// If the buffer fills (slow consumer), new updates are dropped for this
// subscriber. Caller must call [MemoryStore.Unsubscribe] when done to prevent
// resource leaks.
func (m *MemoryStore) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// After calling Unsubscribe, the channel will be closed and no further
// updates will be sent. Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	// map keys are bidirectional channels; match by identity
	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the event to all active subscribers without
// blocking. A full subscriber buffer drops the event for that subscriber.
func (m *MemoryStore) notifySubscribers(event Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- event:
		default:
			// subscriber is slow, drop the message
		}
	}
}
