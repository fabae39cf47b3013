// Package transport provides the connection layer between a device
// controller and the physical instrument.
//
// Three adapters implement the [Connection] contract: a serial line
// (go.bug.st/serial), a TCP/UDP stream socket and an HTTP REST client. The
// byte-stream adapters run a background listener goroutine that drains
// incoming data into a single pending-reply slot; the HTTP adapter is plain
// call/response. Every adapter enforces the configured command delay between
// transmits, which is the engine's flow control for instruments without
// hardware handshaking.
package transport
