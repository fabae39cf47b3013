// Package device implements the command-execution engine shared by all
// instrument drivers: a connection-state machine, the encode/transmit/
// receive/decode send pipeline, busy-wait combinators, a per-device
// background task registry, and a simulation strategy that replaces live
// exchanges with canned responses.
//
// A driver is a Controller plus a statically declared command vocabulary.
// The capability interfaces in this package describe what a finished driver
// can do (temperature regulation, stirring, dispensing and so on); concrete
// drivers satisfy them by composing Send calls over their vocabulary.
package device
