package device

import "errors"

var (
	// ErrNotConnected indicates an operation that needs an established
	// connection was attempted while disconnected.
	ErrNotConnected = errors.New("device: not connected")

	// ErrReplyTimeout indicates a command that expects a reply received
	// nothing within the receive budget. It is a reply-level error, distinct
	// from transport.ErrReceiveTimeout, so callers can tell a silent device
	// from a broken link.
	ErrReplyTimeout = errors.New("device: no reply received")

	// ErrDeviceBusy indicates the device did not report ready within the
	// configured number of readiness checks.
	ErrDeviceBusy = errors.New("device: device busy")
)
