// Package sse streams record change notifications to HTTP clients as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event types sent to clients.
const (
	TypeRecordCreated = "record.created"
	TypeRecordUpdated = "record.updated"
	TypeRecordDeleted = "record.deleted"
	TypeGraphUpdated  = "graph.updated"
)

// Event is one message on the stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// clientBuffer is the number of undelivered messages a client may hold
// before new ones are dropped for it.
const clientBuffer = 64

// Broker fans events out to connected clients. A record change also emits a
// graph.updated event, at most once per graph interval.
type Broker struct {
	graphMin time.Duration
	now      func() time.Time

	mu        sync.Mutex
	clients   map[chan []byte]struct{}
	lastGraph time.Time
	closed    bool
}

// NewBroker creates a broker with the given graph.updated throttle interval.
func NewBroker(graphThrottle time.Duration) *Broker {
	if graphThrottle <= 0 {
		graphThrottle = 2 * time.Second
	}
	return &Broker{
		graphMin: graphThrottle,
		now:      time.Now,
		clients:  make(map[chan []byte]struct{}),
	}
}

// Subscribe registers a client. The returned channel is closed by
// Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.clients[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects every client. Later publishes are dropped.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.clients {
		close(ch)
	}
	b.clients = nil
}

// Publish sends an event to all connected clients. Clients with a full
// buffer miss the event rather than block the publisher.
func (b *Broker) Publish(ev Event) {
	msg, err := encode(ev)
	if err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcast(msg)
}

// PublishRecordEvent maps an index change kind ("created", "updated",
// "deleted") to a record event and a throttled graph.updated event.
func (b *Broker) PublishRecordEvent(kind, filename string) {
	var typ string
	switch kind {
	case "created":
		typ = TypeRecordCreated
	case "updated":
		typ = TypeRecordUpdated
	case "deleted":
		typ = TypeRecordDeleted
	default:
		return
	}
	msg, err := encode(Event{Type: typ, Data: map[string]string{"filename": filename}})
	if err != nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcast(msg)

	if now := b.now(); now.Sub(b.lastGraph) >= b.graphMin {
		b.lastGraph = now
		if g, err := encode(Event{Type: TypeGraphUpdated, Data: map[string]string{}}); err == nil {
			b.broadcast(g)
		}
	}
}

// broadcast must be called with b.mu held.
func (b *Broker) broadcast(msg []byte) {
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

func encode(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", ev.Type, payload), nil
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
