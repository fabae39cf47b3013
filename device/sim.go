package device

import (
	"github.com/openlabkit/labware/command"
	"github.com/openlabkit/labware/logger"
)

// Override produces the simulated reply of one command. It receives the
// command name followed by the argument the caller passed, so index 1 is
// the argument.
type Override func(args []any) any

// Fixed returns an override that always replies with v.
func Fixed(v any) Override {
	return func([]any) any { return v }
}

// EchoArg returns an override that replies with the argument at index.
// EchoArg(1) echoes the value the caller passed to Send.
func EchoArg(index int) Override {
	return func(args []any) any {
		if index < 0 || index >= len(args) {
			return nil
		}
		return args[index]
	}
}

// Simulator replaces live wire exchanges with canned responses. Argument
// casting and validation still run before the simulator is consulted, so
// invalid arguments fail exactly as they would against real hardware; the
// simulated path itself never produces connection or reply errors.
type Simulator struct {
	overrides map[string]Override
}

// NewSimulator creates a simulator with per-command reply overrides keyed
// by command name. Commands without an override reply with the zero value
// of their declared reply type.
func NewSimulator(overrides map[string]Override) *Simulator {
	if overrides == nil {
		overrides = map[string]Override{}
	}
	return &Simulator{overrides: overrides}
}

func (s *Simulator) exchange(spec *command.Spec, arg any, lg logger.Logger) (any, error) {
	lg.Info("simulating command", "command", spec.Name, "arg", arg)

	if !spec.ExpectsReply() {
		return nil, nil
	}
	if ov, ok := s.overrides[spec.Name]; ok {
		return ov([]any{spec.Name, arg}), nil
	}

	switch spec.Reply.Type {
	case command.TypeInt:
		return 0, nil
	case command.TypeFloat:
		return 0.0, nil
	case command.TypeBool:
		return false, nil
	case command.TypeString:
		return "", nil
	default:
		return nil, nil
	}
}
