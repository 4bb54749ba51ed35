package stdlib

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/theory/jsonpath"

	"github.com/jacoelho/jsonpatcher/internal/value"
)

// CompileQuery parses an RFC 9535 JSONPath expression.
func CompileQuery(expr string) (*jsonpath.Path, error) {
	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath %q: %w", expr, err)
	}
	return path, nil
}

func jsonLibrary() *Library {
	lib := newLibrary("json", "JSON text and JSONPath helpers.")

	lib.fn("query", 2, 2, "query(v, path) returns every node of v selected by the JSONPath expression.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		path, err := argString("json.query", args, 1)
		if err != nil {
			return nil, err
		}
		return Query(arg(args, 0), path)
	})
	lib.fn("parse", 1, 1, "parse(text) decodes JSON text.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		text, err := argString("json.parse", args, 0)
		if err != nil {
			return nil, err
		}
		v, err := value.ParseJSON([]byte(text))
		if err != nil {
			return nil, argumentError("json.parse", "%v", err)
		}
		return v, nil
	})
	lib.fn("stringify", 1, 2, "stringify(v, indent?) encodes v as JSON text.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		indent := ""
		if hasArg(args, 1) {
			var err error
			if indent, err = argString("json.stringify", args, 1); err != nil {
				return nil, err
			}
		}
		data, err := value.EncodeJSON(arg(args, 0), indent)
		if err != nil {
			return nil, argumentError("json.stringify", "%v", err)
		}
		return value.String(data), nil
	})

	return lib
}

// Query selects the nodes of v matched by a JSONPath expression. Functions
// inside v are invisible to the query. Selected objects do not keep their
// key order and integral numbers come back as integers.
func Query(v value.Value, expr string) (*value.Array, error) {
	path, err := CompileQuery(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: json.query: %v", ErrArgument, err)
	}

	encoded, err := value.EncodeJSON(value.StripFunctions(v), "")
	if err != nil {
		return nil, argumentError("json.query", "%v", err)
	}
	var data any
	if err := json.Unmarshal(encoded, &data); err != nil {
		return nil, argumentError("json.query", "%v", err)
	}

	selected := path.Select(data)
	out := make([]value.Value, 0, len(selected))
	for _, node := range selected {
		converted, err := value.FromAny(node)
		if err != nil {
			return nil, argumentError("json.query", "%v", err)
		}
		out = append(out, integral(converted))
	}
	return value.NewArray(out...), nil
}

// integral turns floats without a fractional part back into integers.
func integral(v value.Value) value.Value {
	switch x := v.(type) {
	case value.Number:
		f := x.Float64()
		if x.IsInt() || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return x
		}
		return value.Int(int64(f))
	case *value.Array:
		items := x.Items()
		for i, item := range items {
			items[i] = integral(item)
		}
		return value.NewArray(items...)
	case *value.Object:
		members := make([]value.Member, 0, x.Len())
		for k, item := range x.All() {
			members = append(members, value.Member{Key: k, Value: integral(item)})
		}
		return value.NewObject(members...)
	}
	return v
}
