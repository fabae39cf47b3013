package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.CommandDelay())
	assert.Equal(t, time.Second, cfg.ReceiveTimeout())
	assert.Equal(t, time.Second, cfg.TransmitTimeout())
	assert.Equal(t, 50*time.Millisecond, cfg.ReceivingInterval())
	assert.Equal(t, 128, cfg.ReceiveBufferSize())
	assert.Equal(t, 3, cfg.ReceiveRetries())
	assert.Equal(t, "tcp", cfg.Network())
	assert.Equal(t, "http", cfg.Scheme())

	mode := cfg.SerialMode()
	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, serial.NoParity, mode.Parity)
	assert.Equal(t, serial.OneStopBit, mode.StopBits)
}

func TestConfigOptions(t *testing.T) {
	cfg, err := NewConfig(
		WithCommandDelay(100*time.Millisecond),
		WithReceiveTimeout(2*time.Second),
		WithSerialPort("/dev/ttyUSB0"),
		WithBaudRate(19200),
		WithDataBits(7),
		WithParity(serial.EvenParity),
		WithStopBits(serial.TwoStopBits),
		WithAddress("10.0.0.5"),
		WithPort(5025),
		WithNetwork("UDP"),
		WithCredentials("rw", "secret"),
	)
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, cfg.CommandDelay())
	assert.Equal(t, 2*time.Second, cfg.ReceiveTimeout())
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort())
	assert.Equal(t, "udp", cfg.Network())
	assert.Equal(t, "10.0.0.5", cfg.Address())
	assert.Equal(t, 5025, cfg.Port())

	mode := cfg.SerialMode()
	assert.Equal(t, 19200, mode.BaudRate)
	assert.Equal(t, 7, mode.DataBits)
	assert.Equal(t, serial.EvenParity, mode.Parity)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)

	user, password := cfg.Credentials()
	assert.Equal(t, "rw", user)
	assert.Equal(t, "secret", password)
}

func TestConfigInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"negative command delay", WithCommandDelay(-time.Second)},
		{"zero receive timeout", WithReceiveTimeout(0)},
		{"zero receiving interval", WithReceivingInterval(0)},
		{"zero buffer", WithReceiveBufferSize(0)},
		{"negative retries", WithReceiveRetries(-1)},
		{"empty serial port", WithSerialPort("")},
		{"zero baud", WithBaudRate(0)},
		{"bad data bits", WithDataBits(9)},
		{"empty address", WithAddress("")},
		{"port too high", WithPort(70000)},
		{"unknown network", WithNetwork("sctp")},
		{"unknown scheme", WithScheme("gopher")},
		{"nil logger", WithLogger(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.opt)
			assert.Error(t, err)
		})
	}
}

func TestNewSerialConnectionRequiresPort(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	_, err = NewSerialConnection(cfg)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestNewSocketConnectionRequiresAddress(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	_, err = NewSocketConnection(cfg)
	assert.ErrorIs(t, err, ErrConnection)
}
