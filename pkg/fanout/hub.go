// Package fanout routes per-session progress lines from agent runs to their
// subscribers. Sessions and subscribers are fully decoupled: a run publishes
// into the void until someone subscribes, and a subscriber that stops
// draining is detached instead of blocking the run.
package fanout

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBufferSize is the per-subscriber channel buffer. A subscriber whose
// buffer fills up counts as failed delivery and is unregistered.
const DefaultBufferSize = 256

// Config holds hub configuration
type Config struct {
	BufferSize int
	Observer   Observer
	Logger     *zerolog.Logger
}

// Observer receives delivery outcomes for metrics
type Observer interface {
	ObserveSubscribe()
	ObserveUnsubscribe()
	ObservePublish(delivered bool)
}

// Hub maps session ids to at most one subscriber channel each
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan string
	bufferSize  int
	observer    Observer
	logger      zerolog.Logger
}

// New creates a new Hub
func New(cfg Config) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Hub{
		subscribers: make(map[string]chan string),
		bufferSize:  cfg.BufferSize,
		observer:    cfg.Observer,
		logger:      logger.With().Str("component", "fanout").Logger(),
	}
}

// Register attaches a subscriber to a session and returns its channel. A
// second Register for the same session replaces the first: last writer wins,
// and the displaced channel is closed.
func (h *Hub) Register(sessionID string) <-chan string {
	ch := make(chan string, h.bufferSize)

	h.mu.Lock()
	if old, ok := h.subscribers[sessionID]; ok {
		close(old)
	}
	h.subscribers[sessionID] = ch
	h.mu.Unlock()

	h.logger.Debug().Str("session_id", sessionID).Msg("subscriber registered")
	if h.observer != nil {
		h.observer.ObserveSubscribe()
	}
	return ch
}

// Unregister detaches the session's subscriber and closes its channel. It is
// a no-op for unknown sessions. Only the channel registered for the session
// is removed, so a stale Unregister after a Register race cannot detach the
// newer subscriber's channel by id alone.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	ch, ok := h.subscribers[sessionID]
	if ok {
		delete(h.subscribers, sessionID)
		close(ch)
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	h.logger.Debug().Str("session_id", sessionID).Msg("subscriber unregistered")
	if h.observer != nil {
		h.observer.ObserveUnsubscribe()
	}
}

// Publish delivers a line to the session's subscriber. No subscriber means
// the line is silently dropped. A subscriber with a full buffer is treated
// as dead and unregistered.
func (h *Hub) Publish(sessionID, line string) {
	h.mu.RLock()
	ch, ok := h.subscribers[sessionID]
	h.mu.RUnlock()

	if !ok {
		if h.observer != nil {
			h.observer.ObservePublish(false)
		}
		return
	}

	// Sending on a channel that Unregister closed concurrently would panic;
	// the recover turns that race into a dropped line.
	delivered := func() (ok bool) {
		defer func() {
			if recover() != nil {
				ok = false
			}
		}()
		select {
		case ch <- line:
			return true
		default:
			return false
		}
	}()

	if !delivered {
		h.logger.Warn().Str("session_id", sessionID).Msg("subscriber not draining, detaching")
		h.UnregisterChannel(sessionID, ch)
	}
	if h.observer != nil {
		h.observer.ObservePublish(delivered)
	}
}

// SubscriberCount returns the number of attached subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// UnregisterChannel removes the subscription only if it still points at ch,
// so a departing subscriber never detaches its own replacement.
func (h *Hub) UnregisterChannel(sessionID string, ch <-chan string) {
	h.mu.Lock()
	current, ok := h.subscribers[sessionID]
	if ok && (<-chan string)(current) == ch {
		delete(h.subscribers, sessionID)
		close(current)
	} else {
		ok = false
	}
	h.mu.Unlock()

	if ok && h.observer != nil {
		h.observer.ObserveUnsubscribe()
	}
}
