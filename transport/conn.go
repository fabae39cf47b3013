package transport

import (
	"sync"
	"time"

	"github.com/openlabkit/labware/command"
	"github.com/openlabkit/labware/logger"
)

// Connection is the transport contract every adapter fulfils. One device
// owns exactly one connection; sharing a physical port between two device
// objects is unsupported.
type Connection interface {
	// Open establishes the connection and, for byte-stream transports,
	// starts the background listener.
	Open() error

	// Close stops the listener and releases the underlying resource.
	// Closing a connection that is not open is a no-op.
	Close() error

	// IsOpen reports whether the connection is currently open.
	IsOpen() bool

	// Transmit sends an encoded command to the device, blocking first until
	// the configured command delay since the previous transmit has elapsed.
	Transmit(msg command.Message) error

	// Receive retrieves the pending device reply, waiting up to the
	// configured receive timeout per retry. It returns ErrReceiveTimeout
	// when the retry budget elapses with no data.
	Receive() (*command.Reply, error)
}

// throttle enforces the command-delay spacing between transmits on one
// connection. It uses the monotonic clock carried by time.Time, so
// wall-clock adjustments don't break the spacing.
type throttle struct {
	mu   sync.Mutex
	last time.Time
}

// wait blocks until at least delay has elapsed since the previous call,
// then records the current instant as the new reference point.
func (t *throttle) wait(delay time.Duration, lg logger.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		if elapsed := time.Since(t.last); elapsed < delay {
			lg.Debug("command rate too high, delaying next command", "delay", delay-elapsed)
			time.Sleep(delay - elapsed)
		}
	}
	t.last = time.Now()
}

// waitReply runs the shared receive discipline over a reply slot: wait up to
// timeout, retry up to retries extra times, give up with ErrReceiveTimeout.
// The retry budget absorbs rare listener scheduling anomalies seen with
// high-rate polling instruments.
func waitReply(slot *replySlot, timeout time.Duration, retries int, lg logger.Logger) (*command.Reply, error) {
	for attempt := 0; ; attempt++ {
		body, ok := slot.take(timeout)
		if ok {
			return &command.Reply{ContentType: command.ContentChunked, Body: body}, nil
		}
		if attempt >= retries {
			return nil, ErrReceiveTimeout
		}
		lg.Debug("no reply yet, retrying receive", "attempt", attempt+1)
	}
}
