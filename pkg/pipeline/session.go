package pipeline

import (
	"context"
	"sync"

	"mercator-hq/ganymede/pkg/extraction"
)

// Session is one live extraction run. Events arrive in generation order
// on the channel returned by Events; the channel closes once the
// terminal event has been delivered and the audit record enqueued.
// Consumers must drain the channel or cancel the session, otherwise the
// session worker blocks until the parent context ends.
type Session struct {
	events chan extraction.Event
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

func newSession(cancel context.CancelFunc, buffer int) *Session {
	return &Session{
		events: make(chan extraction.Event, buffer),
		cancel: cancel,
	}
}

// Events returns the ordered event stream for this session.
func (s *Session) Events() <-chan extraction.Event {
	return s.events
}

// Cancel stops the session. The worker notices within one read cycle,
// the event channel closes, and Err reports context.Canceled. Safe to
// call multiple times and from any goroutine.
func (s *Session) Cancel() {
	s.cancel()
}

// Err reports how the session ended: nil after a complete event, the
// upstream transport error after a terminal error event, or the context
// error after cancellation. The value is stable once Events has closed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// deliver sends events to the session channel in order, abandoning the
// send once the context is gone. It reports whether a terminal event
// was delivered.
func (s *Session) deliver(ctx context.Context, events []extraction.Event) bool {
	terminal := false
	for _, event := range events {
		select {
		case s.events <- event:
		case <-ctx.Done():
			return terminal
		}
		if event.Terminal() {
			terminal = true
		}
	}
	return terminal
}
