package device

// State represents the connection state of a device. The state only moves
// forward through Connect and InitializeDevice; Disconnect lands back at
// Disconnected from any state.
type State int32

const (
	// Disconnected means no link to the device exists.
	Disconnected State = iota

	// Connected means the transport is open but the device has not been
	// brought to a known configuration yet.
	Connected

	// Initialized means the driver's initialization hook has run and the
	// device is ready for use.
	Initialized
)

// String returns the string representation of the device state.
func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Initialized:
		return "initialized"
	default:
		return "disconnected"
	}
}
