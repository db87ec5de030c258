package arena

import (
	"log/slog"
	"sync"
	"time"
)

// Subscription is one observer's attachment to a match's event stream.
// The channel is closed when the match ends, the observer detaches, or
// the observer falls too far behind and is dropped.
type Subscription struct {
	ch  chan Event
	hub *Hub
}

// Events is the observer's independently-paced stream.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close detaches the observer. Safe to call more than once and after
// the match has completed.
func (s *Subscription) Close() {
	s.hub.detach(s)
}

// Hub fans a match's events out to any number of observers. Each
// observer has a bounded buffer; an observer that stops draining is
// dropped so publishing never blocks match progress. Heartbeats are
// injected periodically so observers can tell a live-but-idle match
// from a dead connection.
type Hub struct {
	matchID string
	bufSize int

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
	stop   chan struct{}
}

func NewHub(matchID string, bufSize int, heartbeat time.Duration) *Hub {
	h := &Hub{
		matchID: matchID,
		bufSize: bufSize,
		subs:    make(map[*Subscription]struct{}),
		stop:    make(chan struct{}),
	}
	if heartbeat > 0 {
		go h.heartbeatLoop(heartbeat)
	}
	return h
}

// Attach registers a new observer. Fails once the hub has closed.
func (h *Hub) Attach() (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrMatchFinished
	}
	s := &Subscription{ch: make(chan Event, h.bufSize), hub: h}
	h.subs[s] = struct{}{}
	return s, nil
}

// Publish delivers the event to every live observer without blocking.
// Observers whose buffers are full are dropped, not the publisher.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for s := range h.subs {
		select {
		case s.ch <- ev:
		default:
			slog.Warn("dropping slow observer", "matchID", h.matchID, "buffered", len(s.ch))
			delete(h.subs, s)
			close(s.ch)
		}
	}
}

// Close releases every observer by closing their channels. Idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.stop)
	for s := range h.subs {
		delete(h.subs, s)
		close(s.ch)
	}
}

func (h *Hub) detach(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}

func (h *Hub) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case t := <-ticker.C:
			h.Publish(Event{Type: EventHeartbeat, MatchID: h.matchID, Timestamp: t})
		}
	}
}
