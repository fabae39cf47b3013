package device

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openlabkit/labware/command"
	"github.com/openlabkit/labware/logger"
	"github.com/openlabkit/labware/transport"
)

// Hook is a driver-supplied action run against the controller, such as the
// initialization sequence or an error-register check.
type Hook func(c *Controller) error

// StatusHook reports a driver-defined status snapshot of the device.
type StatusHook func(c *Controller) (any, error)

// IdleHook reports whether the device can accept the next command.
type IdleHook func(c *Controller) bool

// Controller is the execution engine behind one instrument. It owns exactly
// one transport connection and serializes the command/reply cycle on it, so
// concurrent callers never interleave their wire exchanges.
type Controller struct {
	name    string
	conn    transport.Connection
	framing command.Framing
	logger  logger.Logger
	sim     *Simulator

	initHook   Hook
	idleHook   IdleHook
	statusHook StatusHook
	checkHook  Hook
	clearHook  Hook

	readyInterval time.Duration
	readyAttempts int

	// sendMu serializes the full encode/transmit/receive/decode cycle.
	sendMu sync.Mutex
	state  atomic.Int32

	tasksMu sync.Mutex
	tasks   []*Task
}

// NewController creates a device controller over conn and applies the given
// options. The connection is not opened until Connect.
func NewController(name string, conn transport.Connection, opts ...Option) (*Controller, error) {
	if name == "" {
		return nil, errors.New("device name is required")
	}
	if conn == nil {
		return nil, errors.New("connection is required")
	}

	c := &Controller{
		name:          name,
		conn:          conn,
		framing:       command.DefaultFraming(),
		logger:        logger.Default(),
		readyInterval: time.Second,
		readyAttempts: 10,
	}
	for _, opt := range opts {
		if err := opt.apply(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("device", name)

	return c, nil
}

// Name returns the device name the controller was created with.
func (c *Controller) Name() string {
	return c.name
}

// State returns the current connection state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Simulation reports whether the controller runs in simulation mode.
func (c *Controller) Simulation() bool {
	return c.sim != nil
}

// Connect opens the transport. In simulation mode only the state transition
// happens. Connecting twice is a no-op.
func (c *Controller) Connect() error {
	if c.IsConnected() {
		c.logger.Warn("already connected")
		return nil
	}

	if c.sim == nil {
		if err := c.conn.Open(); err != nil {
			return err
		}
	}
	c.state.Store(int32(Connected))
	c.logger.Info("device connected", "simulation", c.sim != nil)

	return nil
}

// Disconnect stops all background tasks and closes the transport. It always
// lands in Disconnected, and disconnecting twice is a no-op.
func (c *Controller) Disconnect() error {
	c.StopAllTasks()

	if State(c.state.Swap(int32(Disconnected))) == Disconnected {
		c.logger.Debug("already disconnected")
		return nil
	}

	if c.sim == nil {
		if err := c.conn.Close(); err != nil {
			return err
		}
	}
	c.logger.Info("device disconnected")

	return nil
}

// InitializeDevice runs the driver's initialization hook and moves the
// device to Initialized. The device must be connected first.
func (c *Controller) InitializeDevice() error {
	if !c.IsConnected() {
		return fmt.Errorf("%w: can't initialize", ErrNotConnected)
	}

	if c.initHook != nil {
		if err := c.initHook(c); err != nil {
			return err
		}
	}
	c.state.Store(int32(Initialized))
	c.logger.Info("device initialized")

	return nil
}

// IsConnected reports whether the device has been connected.
func (c *Controller) IsConnected() bool {
	return State(c.state.Load()) >= Connected
}

// IsInitialized reports whether the device initialization sequence has run.
func (c *Controller) IsInitialized() bool {
	return State(c.state.Load()) == Initialized
}

// IsIdle reports whether the device can accept the next command, using the
// driver's idle hook. Without a hook a connected device counts as idle.
func (c *Controller) IsIdle() bool {
	if !c.IsConnected() {
		return false
	}
	if c.idleHook == nil {
		return true
	}
	return c.idleHook(c)
}

// GetStatus returns the driver-defined device status snapshot. Drivers
// without a status hook report the connection state.
func (c *Controller) GetStatus() (any, error) {
	if c.statusHook == nil {
		return c.State().String(), nil
	}
	return c.statusHook(c)
}

// CheckErrors runs the driver's error-register check, if any.
func (c *Controller) CheckErrors() error {
	if c.checkHook == nil {
		return nil
	}
	return c.checkHook(c)
}

// ClearErrors runs the driver's error-register reset, if any.
func (c *Controller) ClearErrors() error {
	if c.clearHook == nil {
		return nil
	}
	return c.clearHook(c)
}

// Send runs the full command cycle: cast and validate the argument, encode,
// transmit, and, when the command declares a reply, receive and decode it.
// Commands without a declared reply return (nil, nil) without waiting.
func (c *Controller) Send(spec *command.Spec, arg any) (any, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	msg, err := command.Encode(spec, arg, c.framing)
	if err != nil {
		return nil, err
	}

	if c.sim != nil {
		return c.sim.exchange(spec, arg, c.logger)
	}

	reply, err := c.exchange(spec, msg)
	if err != nil || reply == nil {
		return nil, err
	}

	return command.Decode(spec, reply, c.framing)
}

// SendRaw is Send without the decode step: the reassembled reply is handed
// back as-is. Simulated replies are rendered into a text reply body.
func (c *Controller) SendRaw(spec *command.Spec, arg any) (*command.Reply, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	msg, err := command.Encode(spec, arg, c.framing)
	if err != nil {
		return nil, err
	}

	if c.sim != nil {
		v, err := c.sim.exchange(spec, arg, c.logger)
		if err != nil || v == nil {
			return nil, err
		}
		return &command.Reply{ContentType: command.ContentText, Body: fmt.Sprint(v)}, nil
	}

	return c.exchange(spec, msg)
}

// exchange transmits msg and, when spec expects a reply, collects it.
func (c *Controller) exchange(spec *command.Spec, msg command.Message) (*command.Reply, error) {
	if !c.IsConnected() {
		return nil, fmt.Errorf("%w: can't send command %q", ErrNotConnected, spec.Name)
	}

	if err := c.conn.Transmit(msg); err != nil {
		return nil, err
	}
	if !spec.ExpectsReply() {
		return nil, nil
	}

	reply, err := c.receiveAssembled()
	if err != nil {
		return nil, fmt.Errorf("no reply to command %q: %w", spec.Name, err)
	}

	return reply, nil
}

// receiveAssembled collects the reply to the last transmitted command.
// Byte-stream transports deliver replies in chunks, so reading continues
// until the reply terminator shows up. A receive timeout surfaces as
// ErrReplyTimeout.
func (c *Controller) receiveAssembled() (*command.Reply, error) {
	var sb strings.Builder
	for {
		reply, err := c.conn.Receive()
		if err != nil {
			if errors.Is(err, transport.ErrReceiveTimeout) {
				if sb.Len() > 0 {
					c.logger.Warn("incomplete reply", "partial", sb.String())
				}
				return nil, ErrReplyTimeout
			}
			return nil, err
		}

		// Structured replies arrive whole.
		if reply.ContentType != command.ContentChunked {
			return reply, nil
		}

		sb.WriteString(reply.Body)
		if c.framing.ReplyTerminator == "" ||
			strings.Contains(sb.String(), c.framing.ReplyTerminator) {
			return &command.Reply{ContentType: command.ContentText, Body: sb.String()}, nil
		}
		c.logger.Debug("reply chunk received, waiting for terminator", "partial", sb.String())
	}
}

// Option represents a functional option for configuring a Controller.
type Option interface {
	apply(*Controller) error
}

type optFunc struct {
	name      string
	applyFunc func(*Controller) error
}

func (o *optFunc) apply(c *Controller) error { return o.applyFunc(c) }

func newOptFunc(name string, f func(*Controller) error) *optFunc {
	return &optFunc{name: name, applyFunc: f}
}

// WithLogger sets the logger the controller reports through.
func WithLogger(l logger.Logger) Option {
	return newOptFunc("WithLogger", func(c *Controller) error {
		if l == nil {
			return errors.New("logger should not be nil")
		}
		c.logger = l
		return nil
	})
}

// WithFraming sets the protocol framing used to wrap commands and unwrap
// replies for this device.
func WithFraming(f command.Framing) Option {
	return newOptFunc("WithFraming", func(c *Controller) error {
		c.framing = f
		return nil
	})
}

// WithSimulation puts the controller in simulation mode: no wire exchange
// happens and replies come from the simulator's override table.
func WithSimulation(sim *Simulator) Option {
	return newOptFunc("WithSimulation", func(c *Controller) error {
		if sim == nil {
			return errors.New("simulator should not be nil")
		}
		c.sim = sim
		return nil
	})
}

// WithInitHook sets the initialization sequence run by InitializeDevice.
func WithInitHook(h Hook) Option {
	return newOptFunc("WithInitHook", func(c *Controller) error {
		c.initHook = h
		return nil
	})
}

// WithIdleHook sets the readiness probe used by IsIdle and the wait-ready
// combinators.
func WithIdleHook(h IdleHook) Option {
	return newOptFunc("WithIdleHook", func(c *Controller) error {
		c.idleHook = h
		return nil
	})
}

// WithStatusHook sets the status snapshot reported by GetStatus.
func WithStatusHook(h StatusHook) Option {
	return newOptFunc("WithStatusHook", func(c *Controller) error {
		c.statusHook = h
		return nil
	})
}

// WithErrorHooks sets the error-register check and reset run by CheckErrors
// and ClearErrors. Either hook may be nil.
func WithErrorHooks(check, clear Hook) Option {
	return newOptFunc("WithErrorHooks", func(c *Controller) error {
		c.checkHook = check
		c.clearHook = clear
		return nil
	})
}

// WithReadyPolling sets the poll interval and the attempt ceiling of the
// wait-ready combinators.
func WithReadyPolling(interval time.Duration, attempts int) Option {
	return newOptFunc("WithReadyPolling", func(c *Controller) error {
		if interval <= 0 {
			return fmt.Errorf("ready poll interval should be positive, got %v", interval)
		}
		if attempts <= 0 {
			return fmt.Errorf("ready poll attempts should be positive, got %d", attempts)
		}
		c.readyInterval = interval
		c.readyAttempts = attempts
		return nil
	})
}
