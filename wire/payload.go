// Package wire decodes the loosely-typed JSON objects returned by the Orka
// API into typed values. Every accessor documents its default/error policy:
// identifiers and timestamps are strict, display fields are lenient.
package wire

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cocoonstack/orka/types"
)

// Payload is one decoded JSON object.
type Payload map[string]any

// Required returns a non-empty string field. Absent, empty, or non-string
// values fail with types.ErrMalformedResponse.
func (p Payload) Required(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: missing %q", types.ErrMalformedResponse, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %q is not a non-empty string (%T)", types.ErrMalformedResponse, key, v)
	}
	return s, nil
}

// String returns the field as a string. Numbers are formatted; anything
// else, including absence, yields "".
func (p Payload) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// LenientInt returns the field as an int. Strings are parsed after trimming
// whitespace; anything that is absent or not an integral number yields 0.
func (p Payload) LenientInt(key string) int {
	switch v := p[key].(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return integral(f)
	case float64:
		return integral(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func integral(f float64) int {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return int(f)
}

// Bool returns the field as a bool. "true"/"false" strings are accepted;
// anything else yields false.
func (p Payload) Bool(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	default:
		return false
	}
}

// Time parses the field as an RFC 3339 timestamp. Absent or unparsable
// values fail with types.ErrMalformedResponse.
func (p Payload) Time(key string) (time.Time, error) {
	s, ok := p[key].(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: missing timestamp %q", types.ErrMalformedResponse, key)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %w", types.ErrMalformedResponse, key, err)
	}
	return t, nil
}

// LenientTime parses the field as an RFC 3339 timestamp, yielding the zero
// time when it is absent or unparsable.
func (p Payload) LenientTime(key string) time.Time {
	s, _ := p[key].(string)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Objects returns the field as a list of objects, in wire order. Absence or
// null yields nil; a non-list or a non-object element is malformed.
func (p Payload) Objects(key string) ([]Payload, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a list (%T)", types.ErrMalformedResponse, key, v)
	}
	out := make([]Payload, 0, len(list))
	for i, e := range list {
		obj, ok := asPayload(e)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is not an object (%T)", types.ErrMalformedResponse, key, i, e)
		}
		out = append(out, obj)
	}
	return out, nil
}

// Strings returns the string elements of a list field, skipping anything
// that is not a string.
func (p Payload) Strings(key string) []string {
	list, _ := p[key].([]any)
	var out []string
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asPayload(v any) (Payload, bool) {
	switch m := v.(type) {
	case Payload:
		return m, true
	case map[string]any:
		return Payload(m), true
	default:
		return nil, false
	}
}
