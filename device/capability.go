package device

// Device is the minimal surface every instrument driver exposes. Controller
// provides all of it; drivers embed a Controller and add their vocabulary
// verbs on top.
type Device interface {
	Connect() error
	Disconnect() error
	InitializeDevice() error
	IsConnected() bool
	IsInitialized() bool
	IsIdle() bool
	GetStatus() (any, error)
	CheckErrors() error
	ClearErrors() error
}

// TemperatureController is a device that regulates temperature, such as a
// hotplate, a chiller or a heating bath.
type TemperatureController interface {
	Device

	StartTemperatureRegulation() error
	StopTemperatureRegulation() error
	SetTemperature(temperature float64) error
	GetTemperature() (float64, error)
	GetTemperatureSetpoint() (float64, error)
}

// StirringController is a device that regulates stirring speed, such as an
// overhead or magnetic stirrer.
type StirringController interface {
	Device

	StartStirring() error
	StopStirring() error
	SetSpeed(speed int) error
	GetSpeed() (int, error)
	GetSpeedSetpoint() (int, error)
}

// PressureController is a device that regulates pressure, such as a vacuum
// pump.
type PressureController interface {
	Device

	StartPressureRegulation() error
	StopPressureRegulation() error
	VentOn() error
	VentOff() error
	SetPressure(pressure float64) error
	GetPressure() (float64, error)
	GetPressureSetpoint() (float64, error)
}

// DispensingController is a device that moves liquids, such as a pump.
type DispensingController interface {
	Device

	SetSpeed(speed int) error
	GetSpeed() (int, error)
	Withdraw(amount int) error
	Dispense(amount int) error
}

// DistributionController is a device that routes liquids between multiple
// ports.
type DistributionController interface {
	Device

	MoveHome() error
	ConnectPorts(port1, port2 any) error
	DisconnectPorts(port1, port2 any) error
	GetPortConnections() ([][2]any, error)
}

// DistributionValve is a multi-position valve.
type DistributionValve interface {
	Device

	MoveHome() error
	SetValvePosition(position any) error
	GetValvePosition() (any, error)
}

// SyringePump is a dispensing pump with an addressable plunger.
type SyringePump interface {
	DispensingController

	MoveHome() error
	MovePlungerAbsolute(position int) error
	MovePlungerRelative(position int) error
	GetPlungerPosition() (int, error)
}

// Hotplate is a combined heating and stirring device.
type Hotplate interface {
	TemperatureController
	StirringController
}

// Rotavap is a rotary evaporator: a heating bath plus rotation and lift
// control.
type Rotavap interface {
	TemperatureController
	StirringController

	LiftUp() error
	LiftDown() error
	StartRotation() error
	StopRotation() error
	StartBath() error
	StopBath() error
}
