package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Canonicalize round-trips a value through encoding/json so that
// programmatically constructed values compare identically to decoded ones:
// all numbers become float64, structs and typed maps become
// map[string]any, and typed slices become []any.
func Canonicalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return out, nil
}

// JSONEqual reports deep structural equality of two JSON-like values.
// Object key order is irrelevant and numbers are compared by value, so
// an int 1 equals a float 1.0. Values that cannot be represented as JSON
// are never equal.
func JSONEqual(a, b any) bool {
	ca, err := Canonicalize(a)
	if err != nil {
		return false
	}
	cb, err := Canonicalize(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(ca, cb)
}

// Stringify renders a JSON-like value for text-oriented scorers.
// Strings are used as-is, nil becomes the empty string, and everything
// else is rendered as its canonical JSON text.
func Stringify(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("stringify: %w", err)
		}
		return string(data), nil
	}
}
