package value

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// ErrInvalidYAML wraps every YAML decoding failure.
var ErrInvalidYAML = errors.New("invalid YAML")

// ParseYAML decodes a YAML document, keeping mapping order.
func ParseYAML(data []byte) (Value, error) {
	var decoded any
	if err := yaml.UnmarshalWithOptions(data, &decoded, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	v, err := FromAny(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return v, nil
}

// EncodeYAML renders v as YAML with object keys in insertion order.
func EncodeYAML(v Value) ([]byte, error) {
	ordered, err := toOrdered(v)
	if err != nil {
		return nil, err
	}

	out, err := yaml.Marshal(ordered)
	if err != nil {
		return nil, fmt.Errorf("encode YAML: %w", err)
	}
	return out, nil
}
