package transport

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/openlabkit/labware/logger"
)

// Config holds the tunables of one device connection. It is constructed once
// at device-object creation via [NewConfig] and read concurrently afterward;
// all fields are reachable only through getters.
type Config struct {
	mu sync.RWMutex

	// commandDelay is the minimum spacing enforced between two transmits.
	// It gives the instrument time to process a command before the next one
	// arrives, which matters for RS-232/RS-485 links without hardware flow
	// control. High-level transports get it for free from network latency.
	commandDelay time.Duration

	// receiveTimeout bounds one wait on the pending-reply slot.
	receiveTimeout time.Duration

	// receiveRetries is how many extra waits Receive performs before
	// giving up with ErrReceiveTimeout.
	receiveRetries int

	// transmitTimeout bounds a single write to the device.
	transmitTimeout time.Duration

	// connectTimeout bounds establishing a socket connection.
	connectTimeout time.Duration

	// receivingInterval is the listener poll sleep. It bounds the delay
	// between a reply arriving and the reply being read out.
	receivingInterval time.Duration

	// receiveBufferSize is the chunk size for reading incoming data.
	// Device communication is reply-based rather than stream-based, but not
	// every instrument terminates its replies reliably, so the transport
	// reads fixed-size chunks and leaves reassembly to the controller.
	receiveBufferSize int

	// Serial line settings.
	serialPort string
	baudRate   int
	dataBits   int
	parity     serial.Parity
	stopBits   serial.StopBits
	rtscts     bool
	dsrdtr     bool

	// Socket settings.
	address string
	port    int
	network string // "tcp" or "udp"

	// HTTP settings.
	scheme     string
	user       string
	password   string
	headers    map[string]string
	skipVerify bool

	logger logger.Logger
}

// NewConfig creates a connection configuration with engine defaults and
// applies the given options.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		commandDelay:      500 * time.Millisecond,
		receiveTimeout:    time.Second,
		receiveRetries:    3,
		transmitTimeout:   time.Second,
		connectTimeout:    3 * time.Second,
		receivingInterval: 50 * time.Millisecond,
		receiveBufferSize: 128,
		baudRate:          9600,
		dataBits:          8,
		parity:            serial.NoParity,
		stopBits:          serial.OneStopBit,
		network:           "tcp",
		scheme:            "http",
		logger:            logger.Default(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (cfg *Config) CommandDelay() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.commandDelay
}

func (cfg *Config) ReceiveTimeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.receiveTimeout
}

func (cfg *Config) ReceiveRetries() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.receiveRetries
}

func (cfg *Config) TransmitTimeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.transmitTimeout
}

func (cfg *Config) ConnectTimeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.connectTimeout
}

func (cfg *Config) ReceivingInterval() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.receivingInterval
}

func (cfg *Config) ReceiveBufferSize() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.receiveBufferSize
}

func (cfg *Config) SerialPort() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.serialPort
}

// SerialMode returns the go.bug.st/serial mode built from the configured
// line settings.
func (cfg *Config) SerialMode() *serial.Mode {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return &serial.Mode{
		BaudRate: cfg.baudRate,
		DataBits: cfg.dataBits,
		Parity:   cfg.parity,
		StopBits: cfg.stopBits,
	}
}

func (cfg *Config) FlowControl() (rtscts, dsrdtr bool) {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.rtscts, cfg.dsrdtr
}

func (cfg *Config) Address() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.address
}

func (cfg *Config) Port() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.port
}

func (cfg *Config) Network() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.network
}

func (cfg *Config) Scheme() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.scheme
}

func (cfg *Config) Credentials() (user, password string) {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.user, cfg.password
}

func (cfg *Config) Headers() map[string]string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	headers := make(map[string]string, len(cfg.headers))
	for k, v := range cfg.headers {
		headers[k] = v
	}

	return headers
}

func (cfg *Config) SkipVerify() bool {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.skipVerify
}

func (cfg *Config) Logger() logger.Logger {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.logger
}

// Option represents a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc struct {
	name      string
	applyFunc func(*Config) error
}

func (o *optFunc) apply(cfg *Config) error { return o.applyFunc(cfg) }

func newOptFunc(name string, f func(*Config) error) *optFunc {
	return &optFunc{name: name, applyFunc: f}
}

// WithCommandDelay sets the minimum spacing between two transmits.
func WithCommandDelay(d time.Duration) Option {
	return newOptFunc("WithCommandDelay", func(cfg *Config) error {
		if d < 0 {
			return fmt.Errorf("command delay should not be negative, got %v", d)
		}
		cfg.commandDelay = d
		return nil
	})
}

// WithReceiveTimeout sets the timeout for one wait on the pending-reply slot.
func WithReceiveTimeout(d time.Duration) Option {
	return newOptFunc("WithReceiveTimeout", func(cfg *Config) error {
		if d <= 0 {
			return fmt.Errorf("receive timeout should be positive, got %v", d)
		}
		cfg.receiveTimeout = d
		return nil
	})
}

// WithReceiveRetries sets how many extra receive waits happen before
// ErrReceiveTimeout is returned.
func WithReceiveRetries(n int) Option {
	return newOptFunc("WithReceiveRetries", func(cfg *Config) error {
		if n < 0 {
			return fmt.Errorf("receive retries should not be negative, got %d", n)
		}
		cfg.receiveRetries = n
		return nil
	})
}

// WithTransmitTimeout sets the timeout for a single write to the device.
func WithTransmitTimeout(d time.Duration) Option {
	return newOptFunc("WithTransmitTimeout", func(cfg *Config) error {
		if d <= 0 {
			return fmt.Errorf("transmit timeout should be positive, got %v", d)
		}
		cfg.transmitTimeout = d
		return nil
	})
}

// WithConnectTimeout sets the timeout for establishing a socket connection.
func WithConnectTimeout(d time.Duration) Option {
	return newOptFunc("WithConnectTimeout", func(cfg *Config) error {
		if d <= 0 {
			return fmt.Errorf("connect timeout should be positive, got %v", d)
		}
		cfg.connectTimeout = d
		return nil
	})
}

// WithReceivingInterval sets the listener poll sleep.
func WithReceivingInterval(d time.Duration) Option {
	return newOptFunc("WithReceivingInterval", func(cfg *Config) error {
		if d <= 0 {
			return fmt.Errorf("receiving interval should be positive, got %v", d)
		}
		cfg.receivingInterval = d
		return nil
	})
}

// WithReceiveBufferSize sets the chunk size for incoming reads.
func WithReceiveBufferSize(n int) Option {
	return newOptFunc("WithReceiveBufferSize", func(cfg *Config) error {
		if n <= 0 {
			return fmt.Errorf("receive buffer size should be positive, got %d", n)
		}
		cfg.receiveBufferSize = n
		return nil
	})
}

// WithSerialPort sets the serial port name, e.g. "/dev/ttyUSB0" or "COM3".
func WithSerialPort(name string) Option {
	return newOptFunc("WithSerialPort", func(cfg *Config) error {
		if name == "" {
			return fmt.Errorf("serial port name is empty")
		}
		cfg.serialPort = name
		return nil
	})
}

// WithBaudRate sets the serial line baud rate.
func WithBaudRate(baud int) Option {
	return newOptFunc("WithBaudRate", func(cfg *Config) error {
		if baud <= 0 {
			return fmt.Errorf("baud rate should be positive, got %d", baud)
		}
		cfg.baudRate = baud
		return nil
	})
}

// WithDataBits sets the serial byte size.
func WithDataBits(bits int) Option {
	return newOptFunc("WithDataBits", func(cfg *Config) error {
		if bits < 5 || bits > 8 {
			return fmt.Errorf("data bits should be in [5, 8], got %d", bits)
		}
		cfg.dataBits = bits
		return nil
	})
}

// WithParity sets the serial parity mode.
func WithParity(parity serial.Parity) Option {
	return newOptFunc("WithParity", func(cfg *Config) error {
		cfg.parity = parity
		return nil
	})
}

// WithStopBits sets the serial stop bits.
func WithStopBits(stopBits serial.StopBits) Option {
	return newOptFunc("WithStopBits", func(cfg *Config) error {
		cfg.stopBits = stopBits
		return nil
	})
}

// WithFlowControl sets the RTS/CTS and DTR/DSR line flags asserted after the
// port is opened.
func WithFlowControl(rtscts, dsrdtr bool) Option {
	return newOptFunc("WithFlowControl", func(cfg *Config) error {
		cfg.rtscts = rtscts
		cfg.dsrdtr = dsrdtr
		return nil
	})
}

// WithAddress sets the remote host for socket and HTTP connections.
func WithAddress(address string) Option {
	return newOptFunc("WithAddress", func(cfg *Config) error {
		if address == "" {
			return fmt.Errorf("address is empty")
		}
		cfg.address = address
		return nil
	})
}

// WithPort sets the remote port for socket and HTTP connections.
func WithPort(port int) Option {
	return newOptFunc("WithPort", func(cfg *Config) error {
		if port < 1 || port > 65535 {
			return fmt.Errorf("port should be in [1, 65535], got %d", port)
		}
		cfg.port = port
		return nil
	})
}

// WithNetwork selects the socket protocol, "tcp" or "udp".
func WithNetwork(network string) Option {
	return newOptFunc("WithNetwork", func(cfg *Config) error {
		network = strings.ToLower(network)
		if network != "tcp" && network != "udp" {
			return fmt.Errorf("unknown transport layer protocol %q", network)
		}
		cfg.network = network
		return nil
	})
}

// WithScheme selects the HTTP scheme, "http" or "https".
func WithScheme(scheme string) Option {
	return newOptFunc("WithScheme", func(cfg *Config) error {
		scheme = strings.Trim(strings.ToLower(scheme), ":/")
		if scheme != "http" && scheme != "https" {
			return fmt.Errorf("unknown scheme %q", scheme)
		}
		cfg.scheme = scheme
		return nil
	})
}

// WithCredentials sets HTTP basic-auth credentials.
func WithCredentials(user, password string) Option {
	return newOptFunc("WithCredentials", func(cfg *Config) error {
		cfg.user = user
		cfg.password = password
		return nil
	})
}

// WithHeaders sets extra HTTP headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return newOptFunc("WithHeaders", func(cfg *Config) error {
		cfg.headers = headers
		return nil
	})
}

// WithInsecureTLS disables TLS certificate verification for HTTPS devices
// with self-signed certificates.
func WithInsecureTLS() Option {
	return newOptFunc("WithInsecureTLS", func(cfg *Config) error {
		cfg.skipVerify = true
		return nil
	})
}

// WithLogger sets the logger instance used by the connection.
func WithLogger(l logger.Logger) Option {
	return newOptFunc("WithLogger", func(cfg *Config) error {
		if l == nil {
			return fmt.Errorf("logger is nil")
		}
		cfg.logger = l
		return nil
	})
}
