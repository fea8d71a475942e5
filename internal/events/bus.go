// Package events provides a publish/subscribe bus the core uses to notify
// presentation layers of state changes (conversation appended, site
// document mutated, pipeline refreshed) without polling. The bus is
// nil-safe: Publish on a nil *Bus is a no-op, so components do not need
// guard checks.
package events

import (
	"sync"
	"time"
)

// Source constants identify which component published an event.
const (
	SourceAssistant   = "assistant"
	SourceInterpreter = "interpreter"
	SourcePipeline    = "pipeline"
	SourceStore       = "store"
)

// Kind constants describe the type of event within a source.
const (
	// KindRequestStart signals the beginning of an assistant request.
	// Data: tenant_id, intent.
	KindRequestStart = "request_start"
	// KindRequestComplete signals the end of an assistant request.
	// Data: tenant_id, intent, elapsed_ms, degraded.
	KindRequestComplete = "request_complete"
	// KindConversationUpdated signals a tenant's history changed.
	// Data: tenant_id, turns.
	KindConversationUpdated = "conversation_updated"
	// KindConversationCleared signals a tenant's history was reset.
	// Data: tenant_id.
	KindConversationCleared = "conversation_cleared"
	// KindDocumentUpdated signals a site document was mutated.
	// Data: tenant_id, site_id, actions.
	KindDocumentUpdated = "document_updated"
	// KindPipelineUpdated signals the scheduled-post pipeline changed.
	// Data: tenant_id, posts.
	KindPipelineUpdated = "pipeline_updated"
	// KindProfileUpdated signals a tenant's onboarding profile changed.
	// Data: tenant_id.
	KindProfileUpdated = "profile_updated"
)

// Event represents a single state-change notification.
type Event struct {
	Timestamp time.Time      `json:"ts"`
	Source    string         `json:"source"`
	Kind      string         `json:"kind"`
	TenantID  string         `json:"tenant_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Bus is a non-blocking broadcast event bus. Subscribers receive events
// on buffered channels; slow subscribers miss events rather than
// blocking publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	// recvToSend maps the receive-only channel handed to a subscriber
	// back to the bidirectional channel stored in subs, so Unsubscribe
	// can accept the caller's view of the channel.
	recvToSend map[<-chan Event]chan Event
}

// New creates an event bus ready for use.
func New() *Bus {
	return &Bus{
		subs:       make(map[chan Event]struct{}),
		recvToSend: make(map[<-chan Event]chan Event),
	}
}

// Publish sends an event to all subscribers. If a subscriber's channel
// is full the event is dropped for that subscriber. Safe on nil.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Subscriber is full; drop rather than block.
		}
	}
}

// Emit is a convenience wrapper around Publish.
func (b *Bus) Emit(source, kind, tenantID string, data map[string]any) {
	b.Publish(Event{Source: source, Kind: kind, TenantID: tenantID, Data: data})
}

// Subscribe returns a channel that receives published events. The caller
// must eventually Unsubscribe to avoid leaks. bufSize controls the
// channel buffer.
func (b *Bus) Subscribe(bufSize int) <-chan Event {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	b.recvToSend[ch] = ch
	return ch
}

// Unsubscribe removes a subscription and closes the channel. Safe to
// call with an already-removed channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sendCh, ok := b.recvToSend[ch]
	if !ok {
		return
	}
	delete(b.subs, sendCh)
	delete(b.recvToSend, ch)
	close(sendCh)
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
