package transport

import (
	"sync"
	"time"

	"github.com/openlabkit/labware/internal/pool"
)

// replySlot is the single pending-reply buffer shared between the listener
// goroutine and Receive. The listener overwrites any unconsumed reply
// (last-write-wins): unsolicited or out-of-order replies are dropped rather
// than queued, which keeps one command in flight per device at a time.
type replySlot struct {
	mu     sync.Mutex
	body   string
	ready  bool
	notify chan struct{}
}

func newReplySlot() *replySlot {
	return &replySlot{notify: make(chan struct{}, 1)}
}

// put stores a reply, overwriting an unconsumed one. It returns the
// discarded body and whether an overwrite happened so the caller can log it.
func (s *replySlot) put(body string) (discarded string, overwritten bool) {
	s.mu.Lock()
	if s.ready {
		discarded = s.body
		overwritten = true
	}
	s.body = body
	s.ready = true
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}

	return discarded, overwritten
}

// pending reports whether an unconsumed reply is waiting.
func (s *replySlot) pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ready
}

// take consumes the pending reply, waiting up to timeout for one to arrive.
func (s *replySlot) take(timeout time.Duration) (string, bool) {
	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	for {
		s.mu.Lock()
		if s.ready {
			body := s.body
			s.body = ""
			s.ready = false
			s.mu.Unlock()
			return body, true
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
			// Re-check under the lock; the signal may be stale.
		case <-timer.C:
			return "", false
		}
	}
}

// reset drops any buffered data, removing stale bytes stuck between a
// close/re-open cycle.
func (s *replySlot) reset() {
	s.mu.Lock()
	s.body = ""
	s.ready = false
	s.mu.Unlock()

	select {
	case <-s.notify:
	default:
	}
}
