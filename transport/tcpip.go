package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openlabkit/labware/command"
	"github.com/openlabkit/labware/logger"
	"github.com/openlabkit/labware/task"
)

// SocketConnection drives an instrument reachable over a TCP or UDP stream
// socket.
type SocketConnection struct {
	cfg    *Config
	logger logger.Logger

	connMu sync.Mutex
	conn   net.Conn
	opened atomic.Bool

	slot     *replySlot
	throttle throttle
	tasks    *task.Manager
}

var _ Connection = (*SocketConnection)(nil)

// NewSocketConnection creates a socket connection from cfg. The socket is
// dialed on Open, so the connection object is reusable across close/open
// cycles.
func NewSocketConnection(cfg *Config) (*SocketConnection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConnection)
	}
	if cfg.Address() == "" || cfg.Port() == 0 {
		return nil, fmt.Errorf("%w: socket address not configured", ErrConnection)
	}

	lg := cfg.Logger().With("transport", cfg.Network(), "remote", cfg.remoteAddr())

	return &SocketConnection{
		cfg:    cfg,
		logger: lg,
		slot:   newReplySlot(),
		tasks:  task.NewManager(context.Background(), lg),
	}, nil
}

func (cfg *Config) remoteAddr() string {
	return net.JoinHostPort(cfg.Address(), strconv.Itoa(cfg.Port()))
}

// Open dials the remote instrument and starts the connection listener.
func (c *SocketConnection) Open() error {
	if c.opened.Load() {
		c.logger.Warn("socket already open")
		return nil
	}

	conn, err := net.DialTimeout(c.cfg.Network(), c.cfg.remoteAddr(), c.cfg.ConnectTimeout())
	if err != nil {
		return fmt.Errorf("%w: can't open %s socket for %s: %v",
			ErrOpenFailed, c.cfg.Network(), c.cfg.remoteAddr(), err)
	}

	c.conn = conn
	c.slot.reset()
	c.opened.Store(true)

	buf := make([]byte, c.cfg.ReceiveBufferSize())
	if err := c.tasks.Start("socket-listener", func() bool { return c.listen(buf) }); err != nil {
		c.opened.Store(false)
		_ = conn.Close()
		return fmt.Errorf("%w: can't start listener: %v", ErrOpenFailed, err)
	}

	c.logger.Info("connection opened")

	return nil
}

// listen is one iteration of the connection listener: a deadline-bounded
// read, then chunk accumulation of whatever arrived, stored as the pending
// reply.
func (c *SocketConnection) listen(buf []byte) bool {
	if !c.opened.Load() {
		return false
	}

	c.connMu.Lock()
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReceivingInterval()))
	n, err := c.conn.Read(buf)
	if err != nil && !isTimeout(err) {
		c.connMu.Unlock()
		if c.opened.Load() && !errors.Is(err, net.ErrClosed) {
			if errors.Is(err, io.EOF) {
				c.logger.Warn("device disconnected")
			} else {
				c.logger.Error("socket read failed, listener exiting", "error", err)
			}
			c.opened.Store(false)
		}
		return false
	}
	if n == 0 {
		c.connMu.Unlock()
		return true
	}

	var sb strings.Builder
	sb.Write(buf[:n])
	for sb.Len() <= c.cfg.ReceiveBufferSize() {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReceivingInterval()))
		n, err = c.conn.Read(buf)
		if err != nil || n == 0 {
			break
		}
		sb.Write(buf[:n])
	}
	c.connMu.Unlock()

	if discarded, overwritten := c.slot.put(sb.String()); overwritten {
		c.logger.Warn("discarding unconsumed device reply", "reply", discarded)
	}

	return true
}

// Close stops the listener and closes the socket. The socket is released
// even when the listener already shut the connection down after a remote
// disconnect. Closing a socket that was never opened is a no-op.
func (c *SocketConnection) Close() error {
	c.opened.Store(false)
	c.tasks.Stop()
	c.tasks.Wait()

	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()

	if conn == nil {
		c.logger.Debug("socket is not open, nothing to close")
		return nil
	}

	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: can't close socket: %v", ErrConnection, err)
	}
	c.logger.Info("connection closed")

	return nil
}

func (c *SocketConnection) IsOpen() bool {
	return c.opened.Load()
}

// Transmit writes an encoded command to the socket, spaced at least the
// configured command delay after the previous transmit.
func (c *SocketConnection) Transmit(msg command.Message) error {
	if !c.opened.Load() {
		return fmt.Errorf("%w: no connection to the device", ErrNotOpen)
	}

	c.throttle.wait(c.cfg.CommandDelay(), c.logger)

	if c.slot.pending() {
		c.logger.Warn("previous reply has not been read")
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("%w: no connection to the device", ErrNotOpen)
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.TransmitTimeout()))
	if _, err := c.conn.Write(msg.Body); err != nil {
		return fmt.Errorf("%w: %v", ErrTransmitFailed, err)
	}
	c.logger.Debug("sent command", "message", string(msg.Body))

	return nil
}

// Receive retrieves the pending reply collected by the listener.
func (c *SocketConnection) Receive() (*command.Reply, error) {
	return waitReply(c.slot, c.cfg.ReceiveTimeout(), c.cfg.ReceiveRetries(), c.logger)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
