// events.go - Append-only event log with subscriptions.
//
// Every successful deposit and withdrawal appends an event. Observers can
// read the full history or subscribe to a channel; an observer that only
// watches events learns which commitments exist and which nullifier hashes
// were spent, but not the link between them.

package mixer

import (
	"math/big"
	"sync"
	"time"
)

// EventType identifies the kind of log entry.
type EventType string

const (
	EventDeposit    EventType = "deposit"
	EventWithdrawal EventType = "withdrawal"
)

// DepositEvent is appended after a commitment is admitted.
type DepositEvent struct {
	Commitment *big.Int  `json:"commitment"`
	LeafIndex  uint64    `json:"leaf_index"`
	Timestamp  time.Time `json:"timestamp"`
}

// WithdrawalEvent is appended after a successful withdrawal.
type WithdrawalEvent struct {
	Recipient     *big.Int `json:"recipient"`
	NullifierHash *big.Int `json:"nullifier_hash"`
	Relayer       *big.Int `json:"relayer"`
	Fee           *big.Int `json:"fee"`
}

// Event is a single log entry.
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventLog is an append-only list of events with optional subscriber
// channels. Appends happen under the pool's operation guard; subscription
// management is safe for concurrent use.
type EventLog struct {
	mu      sync.RWMutex
	entries []Event
	subs    map[uint64]chan Event
	nextID  uint64
}

// NewEventLog creates an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{subs: make(map[uint64]chan Event)}
}

// Append records an event and notifies subscribers. Slow subscribers are
// skipped rather than blocking the pool.
func (e *EventLog) Append(typ EventType, data interface{}) {
	ev := Event{Type: typ, Data: data, Timestamp: time.Now()}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, ev)
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a buffered channel receiving future events and a cancel
// function that closes it.
func (e *EventLog) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Events returns a copy of the full event history.
func (e *EventLog) Events() []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Event, len(e.entries))
	copy(out, e.entries)
	return out
}
