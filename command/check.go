package command

import (
	"fmt"
	"strconv"
)

// Check validates a command argument after it has been cast to the declared
// parameter type. The two implementations, [Range] and [OneOf], replace the
// free-form check dictionaries of older command tables with a small tagged
// set of rules.
type Check interface {
	// Validate returns nil when v satisfies the rule, or a validation error
	// matching ErrCommand otherwise.
	Validate(v any) error
}

// Range checks that a numeric argument lies within [Min, Max], inclusive.
type Range struct {
	Min float64
	Max float64
}

var _ Check = Range{}

func (r Range) Validate(v any) error {
	n, ok := toFloat(v)
	if !ok {
		return fmt.Errorf("%w: value %v is not numeric", ErrOutOfRange, v)
	}
	if n < r.Min {
		return fmt.Errorf("%w: value %v is below limit %v", ErrOutOfRange, v, r.Min)
	}
	if n > r.Max {
		return fmt.Errorf("%w: value %v is above limit %v", ErrOutOfRange, v, r.Max)
	}

	return nil
}

// OneOf checks that the argument is a member of a fixed allowed set.
// Values should be declared with the same type the command casts to.
type OneOf struct {
	Values []any
}

var _ Check = OneOf{}

func (o OneOf) Validate(v any) error {
	for _, allowed := range o.Values {
		if v == allowed {
			return nil
		}
	}

	return fmt.Errorf("%w: value %v not in allowed set %v", ErrNotAllowed, v, o.Values)
}

// toFloat widens any primitive numeric value to float64 for comparison.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
