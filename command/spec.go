package command

// ParamType enumerates the primitive types a command argument or a parsed
// reply can be cast to. TypeNone skips casting.
type ParamType uint8

const (
	TypeNone ParamType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBool
)

// String returns the string representation of the parameter type.
func (t ParamType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	default:
		return "none"
	}
}

// Parser transforms a raw reply body into a value. Parsers must be pure
// functions over (body, args...); they never mutate controller state.
// A parser either returns the processed value or an error describing why the
// body could not be parsed.
type Parser func(body string, args ...any) (any, error)

// ReplySpec describes how to decode the response to a command. Its presence
// on a Spec alone signals that the command produces a reply on the wire.
type ReplySpec struct {
	// Type is the primitive type the parsed reply is cast to. Casting is
	// applied only to primitive parser output; structured values pass
	// through unchanged.
	Type ParamType

	// Parser processes the stripped reply body. When nil the body passes
	// through unchanged.
	Parser Parser

	// Args are positional arguments passed to Parser after the body.
	Args []any
}

// Spec is the immutable, declarative description of a single device command.
//
// A command with a nil Reply must never produce a response on the wire. If
// hardware violates this, the next unrelated receive call will incorrectly
// consume the stale bytes. This hazard is documented, not fixed, at this
// layer.
type Spec struct {
	// Name is the unique key of the command within a device's vocabulary.
	Name string

	// Token is the raw token sent over the wire.
	Token string

	// Type is the primitive type the argument is cast to before checking.
	Type ParamType

	// Check validates the cast argument. Nil means no validation.
	Check Check

	// Reply describes the expected response. Nil means fire-and-forget.
	Reply *ReplySpec

	// Method and Endpoint address REST-style devices; both are empty for
	// framed byte-stream protocols.
	Method   string
	Endpoint string

	// Path selects a nested field from a JSON reply body before parsing.
	Path []string
}

// ExpectsReply reports whether the command produces a response on the wire.
func (s *Spec) ExpectsReply() bool {
	return s != nil && s.Reply != nil
}

// IsREST reports whether the command addresses an HTTP REST device.
func (s *Spec) IsREST() bool {
	return s != nil && s.Method != ""
}

// Framing holds the protocol-level framing settings of one device: how
// outgoing commands are wrapped and how incoming replies are unwrapped.
type Framing struct {
	// CommandPrefix is prepended to every outgoing command.
	CommandPrefix string

	// Terminator is appended to every outgoing command.
	Terminator string

	// ArgsDelimiter separates the wire token from its argument.
	ArgsDelimiter string

	// ReplyPrefix is stripped from the beginning of incoming replies.
	ReplyPrefix string

	// ReplyTerminator is stripped from the end of incoming replies. It also
	// marks the end of a chunked reply during reassembly.
	ReplyTerminator string
}

// DefaultFraming returns the framing used by most line-oriented instruments:
// CRLF-terminated commands and replies with a single space before arguments.
func DefaultFraming() Framing {
	return Framing{
		Terminator:      "\r\n",
		ArgsDelimiter:   " ",
		ReplyTerminator: "\r\n",
	}
}
