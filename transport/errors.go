package transport

import (
	"errors"
	"fmt"
)

// ErrConnection matches every connection-level failure. The engine never
// auto-reconnects; all of these surface to the caller.
var ErrConnection = errors.New("transport: connection error")

var (
	// ErrNotOpen indicates an operation on a connection that is not open.
	ErrNotOpen = fmt.Errorf("%w: connection not open", ErrConnection)

	// ErrOpenFailed indicates the connection could not be established.
	ErrOpenFailed = fmt.Errorf("%w: open failed", ErrConnection)

	// ErrTransmitFailed indicates a write to the device failed.
	ErrTransmitFailed = fmt.Errorf("%w: transmit failed", ErrConnection)

	// ErrReceiveTimeout indicates the receive retry budget elapsed with no
	// data arriving from the device.
	ErrReceiveTimeout = fmt.Errorf("%w: receive timeout", ErrConnection)

	// ErrProtocol indicates the transport-level protocol was violated, such
	// as an HTTP error status from a REST instrument.
	ErrProtocol = fmt.Errorf("%w: protocol error", ErrConnection)
)
