package value

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/goccy/go-yaml"
)

// FromAny converts decoded Go data (encoding/json, go-yaml or hand-built
// maps and slices) into a Value. Plain maps are ordered by key.
func FromAny(in any) (Value, error) {
	switch current := in.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return current, nil
	case bool:
		return Bool(current), nil
	case string:
		return String(current), nil
	case json.Number:
		return parseNumber(string(current))
	case []any:
		items := make([]Value, len(current))
		for i, item := range current {
			converted, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = converted
		}
		return NewArray(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(current))
		for key := range current {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		members := make([]Member, 0, len(keys))
		for _, key := range keys {
			converted, err := FromAny(current[key])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			members = append(members, Member{Key: key, Value: converted})
		}
		return NewObject(members...), nil
	case yaml.MapSlice:
		members := make([]Member, 0, len(current))
		for _, item := range current {
			key := fmt.Sprint(item.Key)
			converted, err := FromAny(item.Value)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			members = append(members, Member{Key: key, Value: converted})
		}
		return NewObject(members...), nil
	}

	if n, ok := numberFromAny(in); ok {
		return n, nil
	}
	return nil, fmt.Errorf("unsupported type %T", in)
}

// numberFromAny converts the Go numeric types, keeping integers integral.
func numberFromAny(in any) (Number, bool) {
	switch current := in.(type) {
	case int:
		return Int(int64(current)), true
	case int8:
		return Int(int64(current)), true
	case int16:
		return Int(int64(current)), true
	case int32:
		return Int(int64(current)), true
	case int64:
		return Int(current), true
	case uint:
		return uintNumber(uint64(current)), true
	case uint8:
		return Int(int64(current)), true
	case uint16:
		return Int(int64(current)), true
	case uint32:
		return Int(int64(current)), true
	case uint64:
		return uintNumber(current), true
	case float32:
		return Float(float64(current)), true
	case float64:
		return Float(current), true
	default:
		return Number{}, false
	}
}

func uintNumber(u uint64) Number {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

// ToAny converts v into plain Go data: map[string]any, []any, int64,
// float64, string, bool and nil. Functions become nil.
func ToAny(v Value) any {
	switch x := v.(type) {
	case Bool:
		return bool(x)
	case Number:
		if x.isFloat {
			return x.f
		}
		return x.i
	case String:
		return string(x)
	case *Array:
		out := make([]any, len(x.items))
		for i, item := range x.items {
			out[i] = ToAny(item)
		}
		return out
	case *Object:
		out := make(map[string]any, len(x.keys))
		for key, item := range x.values {
			out[key] = ToAny(item)
		}
		return out
	default:
		return nil
	}
}

// toOrdered converts v into go-yaml data that keeps object key order.
func toOrdered(v Value) (any, error) {
	switch x := v.(type) {
	case *Array:
		out := make([]any, len(x.items))
		for i, item := range x.items {
			converted, err := toOrdered(item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case *Object:
		out := make(yaml.MapSlice, 0, len(x.keys))
		for key, item := range x.All() {
			converted, err := toOrdered(item)
			if err != nil {
				return nil, err
			}
			out = append(out, yaml.MapItem{Key: key, Value: converted})
		}
		return out, nil
	case *Function:
		return nil, fmt.Errorf("%w: %s", ErrUnserializable, Format(x))
	default:
		return ToAny(v), nil
	}
}
