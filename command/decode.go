package command

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decode strips framing from the raw reply, applies the parser declared in
// the command spec and casts the result to the declared primitive reply
// type.
//
// JSON replies are first narrowed through the spec's Path before parsing.
// Non-primitive parser output (slices, maps, regexp submatches) is returned
// unchanged; only int, float, string and bool results are force-cast.
func Decode(spec *Spec, reply *Reply, f Framing) (any, error) {
	if spec.Reply == nil {
		return reply.Body, nil
	}

	var value any
	if reply.ContentType == ContentJSON && len(spec.Path) > 0 {
		v, err := jsonPath(spec, reply.Body)
		if err != nil {
			return nil, err
		}
		value = v
	} else {
		value = StripAffixes(reply.Body, f.ReplyPrefix, f.ReplyTerminator)
	}

	if spec.Reply.Parser != nil {
		body, ok := value.(string)
		if !ok {
			body = fmt.Sprintf("%v", value)
		}
		parsed, err := spec.Reply.Parser(body, spec.Reply.Args...)
		if err != nil {
			return nil, fmt.Errorf("command %q: %w: %v", spec.Name, ErrMalformedReply, err)
		}
		value = parsed
	}

	return castReply(spec, value)
}

// jsonPath walks the spec's Path through a decoded JSON body.
func jsonPath(spec *Spec, body string) (any, error) {
	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("command %q: %w: invalid JSON body: %v", spec.Name, ErrMalformedReply, err)
	}
	for _, key := range spec.Path {
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("command %q: %w: path %v does not address an object", spec.Name, ErrMalformedReply, spec.Path)
		}
		doc, ok = obj[key]
		if !ok {
			return nil, fmt.Errorf("command %q: %w: key %q not found", spec.Name, ErrMalformedReply, key)
		}
	}

	return doc, nil
}

// castReply casts primitive parser output to the declared reply type.
func castReply(spec *Spec, v any) (any, error) {
	if spec.Reply.Type == TypeNone {
		return v, nil
	}

	switch v.(type) {
	case int, int32, int64, float32, float64, string, bool:
	default:
		// Structured values are never force-cast.
		return v, nil
	}

	switch spec.Reply.Type {
	case TypeInt:
		return replyInt(spec, v)
	case TypeFloat:
		return replyFloat(spec, v)
	case TypeString:
		return replyString(v), nil
	case TypeBool:
		return replyBool(spec, v)
	default:
		return v, nil
	}
}

func replyInt(spec *Spec, v any) (int, error) {
	if n, ok := toFloat(v); ok {
		// Devices report integer quantities as "0.0"; go through float so
		// the fractional form still casts.
		return int(n), nil
	}

	return 0, fmt.Errorf("command %q: %w: can't cast reply %v to int", spec.Name, ErrMalformedReply, v)
}

func replyFloat(spec *Spec, v any) (float64, error) {
	if n, ok := toFloat(v); ok {
		return n, nil
	}

	return 0, fmt.Errorf("command %q: %w: can't cast reply %v to float", spec.Name, ErrMalformedReply, v)
}

func replyString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", v)
}

func replyBool(spec *Spec, v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case int:
		return b != 0, nil
	case float64:
		return b != 0, nil
	case string:
		switch strings.TrimSpace(strings.ToLower(b)) {
		case "", "0", "false", "off":
			return false, nil
		case "1", "true", "on":
			return true, nil
		default:
			return false, fmt.Errorf("command %q: %w: can't cast reply %q to bool", spec.Name, ErrMalformedReply, b)
		}
	default:
		return false, fmt.Errorf("command %q: %w: can't cast reply %T to bool", spec.Name, ErrMalformedReply, v)
	}
}
