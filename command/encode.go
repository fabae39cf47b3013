package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Message is the encoded wire form of a command, ready for a transport.
// Byte-stream transports send Body verbatim; the HTTP transport issues a
// Method request against Endpoint with Body as the request payload.
type Message struct {
	Body     []byte
	Method   string
	Endpoint string
}

// Encode validates the argument against the command spec and serializes the
// final wire message.
//
// The argument is first cast to the declared parameter type (a float cast to
// int truncates), then checked against the spec's validation rule. Any
// failure returns an error matching [ErrCommand] before a single byte is
// produced. A nil argument skips casting and checking entirely.
func Encode(spec *Spec, arg any, f Framing) (Message, error) {
	var value string
	if arg != nil {
		cast, err := castParam(spec, arg)
		if err != nil {
			return Message{}, err
		}
		if spec.Check != nil {
			if err := spec.Check.Validate(cast); err != nil {
				return Message{}, fmt.Errorf("command %q: %w", spec.Name, err)
			}
		}
		value = formatArg(cast)
	}

	if spec.IsREST() {
		return Message{
			Method:   spec.Method,
			Endpoint: spec.Endpoint,
			Body:     []byte(value),
		}, nil
	}

	var b strings.Builder
	b.WriteString(f.CommandPrefix)
	b.WriteString(spec.Token)
	if arg != nil {
		b.WriteString(f.ArgsDelimiter)
		b.WriteString(value)
	}
	b.WriteString(f.Terminator)

	return Message{Body: []byte(b.String())}, nil
}

// castParam casts the raw argument to the spec's parameter type.
func castParam(spec *Spec, arg any) (any, error) {
	switch spec.Type {
	case TypeNone:
		return arg, nil
	case TypeInt:
		return castInt(spec, arg)
	case TypeFloat:
		return castFloat(spec, arg)
	case TypeString:
		return fmt.Sprintf("%v", arg), nil
	case TypeBool:
		return castBool(spec, arg)
	default:
		return nil, fmt.Errorf("command %q: %w: unknown parameter type %d", spec.Name, ErrBadArgument, spec.Type)
	}
}

func castInt(spec *Spec, arg any) (int, error) {
	switch v := arg.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float32:
		return int(v), nil
	case float64:
		return int(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("command %q: %w: can't cast %q to int", spec.Name, ErrBadArgument, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("command %q: %w: can't cast %T to int", spec.Name, ErrBadArgument, arg)
	}
}

func castFloat(spec *Spec, arg any) (float64, error) {
	switch v := arg.(type) {
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("command %q: %w: can't cast %q to float", spec.Name, ErrBadArgument, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("command %q: %w: can't cast %T to float", spec.Name, ErrBadArgument, arg)
	}
}

func castBool(spec *Spec, arg any) (bool, error) {
	switch v := arg.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("command %q: %w: can't cast %q to bool", spec.Name, ErrBadArgument, v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("command %q: %w: can't cast %T to bool", spec.Name, ErrBadArgument, arg)
	}
}

// formatArg stringifies a validated argument for the wire.
func formatArg(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case int:
		return strconv.Itoa(n)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case bool:
		if n {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", v)
	}
}
