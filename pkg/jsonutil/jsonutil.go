package jsonutil

import (
	"encoding/json"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// MarshalString marshals the provided value to a JSON string.
func MarshalString[T any](value T) (string, error) {
	buf, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// MarshalMapString marshals a map to a JSON string, substituting an empty map when nil.
func MarshalMapString[K comparable, V any](m map[K]V) (string, error) {
	if m == nil {
		m = map[K]V{}
	}
	return MarshalString(m)
}

// Generic round-trips value through JSON so that encoders which ignore
// json struct tags see the same field names the API emits.
func Generic(value any) (any, error) {
	buf, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	var out any
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pairs renders a float map as "k=v" pairs ordered by key.
func Pairs(m map[string]float64) string {
	if len(m) == 0 {
		return "-"
	}

	parts := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, k+"="+strconv.FormatFloat(m[k], 'f', -1, 64))
	}
	return strings.Join(parts, ", ")
}
