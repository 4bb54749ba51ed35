package jsonpatcher

import (
	"github.com/jacoelho/jsonpatcher/internal/value"
)

// Value is a JSON document or script value: Null, Bool, Number, String,
// *Array, *Object or, inside scripts only, *Function.
type Value = value.Value

// ParseJSON decodes one JSON document. Object key order is kept.
func ParseJSON(data []byte) (Value, error) {
	return value.ParseJSON(data)
}

// EncodeJSON encodes v. A non-empty indent pretty-prints the output.
func EncodeJSON(v Value, indent string) ([]byte, error) {
	return value.EncodeJSON(v, indent)
}

// ParseYAML decodes one YAML document into the JSON data model.
func ParseYAML(data []byte) (Value, error) {
	return value.ParseYAML(data)
}

func EncodeYAML(v Value) ([]byte, error) {
	return value.EncodeYAML(v)
}

// FromAny converts the output of encoding/json style decoding, or any
// nesting of Go maps, slices, strings, numbers and booleans, into a Value.
func FromAny(in any) (Value, error) {
	return value.FromAny(in)
}

// ToAny converts v into plain Go values.
func ToAny(v Value) any {
	return value.ToAny(v)
}

// Equal compares values structurally; numbers compare by value.
func Equal(a Value, b Value) bool {
	return value.Equal(a, b)
}

// Format renders v the way scripts print it.
func Format(v Value) string {
	return value.Format(v)
}
