package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.bug.st/serial"

	"github.com/openlabkit/labware/command"
	"github.com/openlabkit/labware/logger"
	"github.com/openlabkit/labware/task"
)

// SerialConnection drives an instrument attached to an RS-232/RS-485 line.
type SerialConnection struct {
	cfg    *Config
	logger logger.Logger

	portMu sync.Mutex
	port   serial.Port
	opened atomic.Bool

	slot     *replySlot
	throttle throttle
	tasks    *task.Manager
}

var _ Connection = (*SerialConnection)(nil)

// NewSerialConnection creates a serial connection from cfg. The port is not
// opened until Open is called, so the connection object is reusable across
// close/open cycles.
func NewSerialConnection(cfg *Config) (*SerialConnection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConnection)
	}
	if cfg.SerialPort() == "" {
		return nil, fmt.Errorf("%w: serial port name not configured", ErrConnection)
	}

	lg := cfg.Logger().With("transport", "serial", "port", cfg.SerialPort())

	return &SerialConnection{
		cfg:    cfg,
		logger: lg,
		slot:   newReplySlot(),
		tasks:  task.NewManager(context.Background(), lg),
	}, nil
}

// Open opens the serial port with the configured line settings and starts
// the connection listener.
func (c *SerialConnection) Open() error {
	if c.opened.Load() {
		c.logger.Warn("serial port already open")
		return nil
	}

	port, err := serial.Open(c.cfg.SerialPort(), c.cfg.SerialMode())
	if err != nil {
		return fmt.Errorf("%w: can't open serial port %s: %v", ErrOpenFailed, c.cfg.SerialPort(), err)
	}

	// The read timeout paces the listener loop; it bounds how long one
	// listener iteration can hold the port.
	if err := port.SetReadTimeout(c.cfg.ReceivingInterval()); err != nil {
		_ = port.Close()
		return fmt.Errorf("%w: can't set read timeout: %v", ErrOpenFailed, err)
	}

	rtscts, dsrdtr := c.cfg.FlowControl()
	if err := port.SetRTS(rtscts); err != nil {
		c.logger.Warn("can't set RTS line", "error", err)
	}
	if err := port.SetDTR(dsrdtr); err != nil {
		c.logger.Warn("can't set DTR line", "error", err)
	}

	_ = port.ResetInputBuffer()
	_ = port.ResetOutputBuffer()

	c.port = port
	c.slot.reset()
	c.opened.Store(true)

	buf := make([]byte, c.cfg.ReceiveBufferSize())
	if err := c.tasks.Start("serial-listener", func() bool { return c.listen(buf) }); err != nil {
		c.opened.Store(false)
		_ = port.Close()
		return fmt.Errorf("%w: can't start listener: %v", ErrOpenFailed, err)
	}

	c.logger.Info("serial port opened")

	return nil
}

// listen is one iteration of the connection listener: a short-timeout read,
// then chunk accumulation of whatever arrived, stored as the pending reply.
func (c *SerialConnection) listen(buf []byte) bool {
	if !c.opened.Load() {
		return false
	}

	c.portMu.Lock()
	n, err := c.port.Read(buf)
	if err != nil {
		c.portMu.Unlock()
		if c.opened.Load() {
			c.logger.Error("serial read failed, listener exiting", "error", err)
			c.opened.Store(false)
		}
		return false
	}
	if n == 0 {
		// Read timeout, no data on the line.
		c.portMu.Unlock()
		return true
	}

	var sb strings.Builder
	sb.Write(buf[:n])
	for sb.Len() <= c.cfg.ReceiveBufferSize() {
		n, err = c.port.Read(buf)
		if err != nil || n == 0 {
			break
		}
		sb.Write(buf[:n])
	}
	c.portMu.Unlock()

	if discarded, overwritten := c.slot.put(sb.String()); overwritten {
		c.logger.Warn("discarding unconsumed device reply", "reply", discarded)
	}

	return true
}

// Close stops the listener and closes the port. The port is released even
// when the listener already shut the connection down after a read failure.
// Closing a port that was never opened is a no-op.
func (c *SerialConnection) Close() error {
	c.opened.Store(false)
	c.tasks.Stop()
	c.tasks.Wait()

	c.portMu.Lock()
	port := c.port
	c.port = nil
	c.portMu.Unlock()

	if port == nil {
		c.logger.Debug("serial port is not open, nothing to close")
		return nil
	}

	_ = port.ResetInputBuffer()
	_ = port.ResetOutputBuffer()
	if err := port.Close(); err != nil {
		return fmt.Errorf("%w: can't close serial port: %v", ErrConnection, err)
	}
	c.logger.Info("serial port closed")

	return nil
}

func (c *SerialConnection) IsOpen() bool {
	return c.opened.Load()
}

// Transmit writes an encoded command to the line, spaced at least the
// configured command delay after the previous transmit. Stale buffered
// device bytes are dropped before the write.
func (c *SerialConnection) Transmit(msg command.Message) error {
	if !c.opened.Load() {
		return fmt.Errorf("%w: no connection to the device", ErrNotOpen)
	}

	c.throttle.wait(c.cfg.CommandDelay(), c.logger)

	if c.slot.pending() {
		c.logger.Warn("previous reply has not been read")
	}

	c.portMu.Lock()
	defer c.portMu.Unlock()

	if c.port == nil {
		return fmt.Errorf("%w: no connection to the device", ErrNotOpen)
	}

	_ = c.port.ResetInputBuffer()
	_ = c.port.ResetOutputBuffer()
	if _, err := c.port.Write(msg.Body); err != nil {
		return fmt.Errorf("%w: %v", ErrTransmitFailed, err)
	}
	c.logger.Debug("sent command", "message", string(msg.Body))

	return nil
}

// Receive retrieves the pending reply collected by the listener.
func (c *SerialConnection) Receive() (*command.Reply, error) {
	return waitReply(c.slot, c.cfg.ReceiveTimeout(), c.cfg.ReceiveRetries(), c.logger)
}
