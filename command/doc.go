// Package command defines the data-driven command vocabulary model for lab
// instruments and the encode/decode pipeline built on it.
//
// A device driver declares its vocabulary as a set of [Spec] records: the
// wire token, an optional parameter type with a validation rule, and an
// optional reply rule naming a parser and a primitive result type. The
// engine validates and serializes outgoing commands with [Encode] and turns
// raw device replies into typed values with [Decode]. Presence of the Reply
// field alone signals that a command produces a response on the wire.
package command
