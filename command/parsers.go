package command

import (
	"fmt"
	"regexp"
	"strings"
)

// Built-in reply parsers. Each matches the [Parser] signature so command
// tables can reference them directly; device-specific parsers plug in the
// same way.

// Slice returns a substring of the reply by index. With one int argument it
// slices up to that index, with two it slices between them. Negative indices
// count from the end of the reply.
//
// A command table entry of {Parser: Slice, Args: []any{-2}} turns "103.5 1"
// into "103.5".
func Slice(body string, args ...any) (any, error) {
	start, stop := 0, len(body)

	switch len(args) {
	case 1:
		n, ok := args[0].(int)
		if !ok {
			return nil, fmt.Errorf("slice: stop index %v is not an int", args[0])
		}
		stop = clampIndex(n, len(body))
	case 2:
		n, ok := args[0].(int)
		if !ok {
			return nil, fmt.Errorf("slice: start index %v is not an int", args[0])
		}
		m, ok := args[1].(int)
		if !ok {
			return nil, fmt.Errorf("slice: stop index %v is not an int", args[1])
		}
		start = clampIndex(n, len(body))
		stop = clampIndex(m, len(body))
	default:
		return nil, fmt.Errorf("slice: want 1 or 2 index arguments, got %d", len(args))
	}

	if start > stop {
		return "", nil
	}

	return body[start:stop], nil
}

// clampIndex resolves a possibly negative index against length n and clamps
// it into [0, n].
func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}

	return i
}

// Strip removes a prefix and a suffix from the reply when present. Args are
// the prefix and suffix strings; either may be empty.
func Strip(body string, args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("strip: want prefix and suffix arguments, got %d", len(args))
	}
	prefix, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("strip: prefix %v is not a string", args[0])
	}
	suffix, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("strip: suffix %v is not a string", args[1])
	}

	return StripAffixes(body, prefix, suffix), nil
}

// Find applies the regular expression given as the single argument and
// returns the first match. When the pattern contains a capture group, the
// first group's text is returned instead of the whole match.
func Find(body string, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("find: want a pattern argument, got %d", len(args))
	}
	pattern, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("find: pattern %v is not a string", args[0])
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("find: %v", err)
	}

	m := re.FindStringSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("find: pattern %q not found in reply %q", pattern, body)
	}
	if len(m) > 1 {
		return m[1], nil
	}

	return m[0], nil
}

// StripAffixes removes prefix and suffix from s when present. Unlike
// strings.Trim it treats each affix as one unit instead of a character set,
// which matters for multi-character terminators like "\r\n".
func StripAffixes(s, prefix, suffix string) string {
	if prefix != "" {
		s = strings.TrimPrefix(s, prefix)
	}
	if suffix != "" {
		s = strings.TrimSuffix(s, suffix)
	}

	return s
}
