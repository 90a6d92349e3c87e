// Package registry holds the process-local map of live push channels, one
// per connected recipient. It carries no business logic and is never a
// source of truth: everything here is lost on restart, and the durable
// notification store is what recipients fall back to.
package registry

import (
	"log/slog"
	"sync"
	"time"
)

// ChannelLifetime caps how long a push channel stays open before the server
// closes it. Clients are expected to reconnect.
const ChannelLifetime = 30 * time.Minute

// eventBuffer bounds how many undelivered events a slow consumer may pile
// up before the registry treats the channel as failed and evicts it.
const eventBuffer = 16

// Event is one server-to-client push: an SSE event name plus its
// JSON-encoded data.
type Event struct {
	Name string
	Data []byte
}

// Channel is a single-recipient, single-writer push channel. The registry
// owns it for its whole lifetime; consumers only receive from Events and
// watch Done.
type Channel struct {
	recipientID int64
	events      chan Event
	done        chan struct{}
	closeOnce   sync.Once
	openedAt    time.Time
}

// Events delivers pushed events to the consuming connection handler.
func (ch *Channel) Events() <-chan Event {
	return ch.events
}

// Done is closed when the channel is evicted, replaced, or explicitly
// closed.
func (ch *Channel) Done() <-chan struct{} {
	return ch.done
}

func (ch *Channel) close() {
	ch.closeOnce.Do(func() {
		close(ch.done)
	})
}

// Registry maps a recipient id to at most one open push channel. All
// methods are safe for concurrent use from arbitrarily many connection
// handlers plus the scheduler-driven producers.
type Registry struct {
	mu       sync.Mutex
	channels map[int64]*Channel
}

func New() *Registry {
	return &Registry{
		channels: make(map[int64]*Channel),
	}
}

// Open creates a fresh channel for the recipient. If the recipient already
// holds one it is closed and replaced; the registry never keeps two
// channels for the same recipient.
func (r *Registry) Open(recipientID int64) *Channel {
	ch := &Channel{
		recipientID: recipientID,
		events:      make(chan Event, eventBuffer),
		done:        make(chan struct{}),
		openedAt:    time.Now(),
	}

	r.mu.Lock()
	if old, ok := r.channels[recipientID]; ok {
		old.close()
	}
	r.channels[recipientID] = ch
	r.mu.Unlock()

	slog.Info("push channel opened", "recipient_id", recipientID)
	return ch
}

// Send attempts best-effort delivery to the recipient's channel. With no
// channel open it is a silent no-op; on delivery failure the channel is
// evicted and the failure is only logged, never surfaced to the caller.
func (r *Registry) Send(recipientID int64, event Event) {
	r.mu.Lock()
	ch, ok := r.channels[recipientID]
	r.mu.Unlock()
	if !ok {
		return
	}

	select {
	case ch.events <- event:
	default:
		// Consumer stopped draining. Evict rather than block a producer;
		// Release is identity-checked so a concurrent replacement survives.
		slog.Warn("push delivery failed, evicting channel", "recipient_id", recipientID)
		r.Release(ch)
	}
}

// Broadcast sends the event to every currently-registered recipient. A
// failure for one recipient does not affect the others.
func (r *Registry) Broadcast(event Event) {
	r.mu.Lock()
	recipients := make([]int64, 0, len(r.channels))
	for id := range r.channels {
		recipients = append(recipients, id)
	}
	r.mu.Unlock()

	for _, id := range recipients {
		r.Send(id, event)
	}
}

// Close tears down the recipient's channel. Idempotent.
func (r *Registry) Close(recipientID int64) {
	r.mu.Lock()
	ch, ok := r.channels[recipientID]
	if ok {
		delete(r.channels, recipientID)
	}
	r.mu.Unlock()

	if ok {
		ch.close()
		slog.Info("push channel closed", "recipient_id", recipientID)
	}
}

// Release removes the given channel if it is still the recipient's current
// one. Connection handlers call this on teardown so that a handler whose
// channel was already replaced does not tear down its successor.
func (r *Registry) Release(ch *Channel) {
	r.mu.Lock()
	if current, ok := r.channels[ch.recipientID]; ok && current == ch {
		delete(r.channels, ch.recipientID)
	}
	r.mu.Unlock()

	ch.close()
}

// Count reports the number of currently open channels, for observability
// only.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}
