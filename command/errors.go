package command

import (
	"errors"
	"fmt"
)

// ErrCommand matches every command validation failure. All validation
// failures are raised before any byte is transmitted and are never retried.
var ErrCommand = errors.New("command: validation failed")

var (
	// ErrBadArgument indicates the argument could not be cast to the
	// parameter type declared in the command spec.
	ErrBadArgument = fmt.Errorf("%w: bad argument", ErrCommand)

	// ErrOutOfRange indicates the argument is outside the declared
	// min/max bounds.
	ErrOutOfRange = fmt.Errorf("%w: value out of range", ErrCommand)

	// ErrNotAllowed indicates the argument is not a member of the declared
	// allowed set.
	ErrNotAllowed = fmt.Errorf("%w: value not allowed", ErrCommand)
)

// ErrMalformedReply indicates a reply arrived but failed parsing or casting
// to the declared reply type. It is distinct from the transport-level receive
// timeout so callers can tell "no bytes arrived" from "bytes arrived but
// malformed".
var ErrMalformedReply = errors.New("command: malformed reply")
