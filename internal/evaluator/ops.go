package evaluator

import (
	"fmt"
	"strings"

	"github.com/jacoelho/jsonpatcher/internal/token"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

func operandError(op token.Kind, x value.Value, y value.Value) error {
	return fmt.Errorf("cannot apply %s to %s and %s", op, value.TypeName(x), value.TypeName(y))
}

// binaryOp evaluates every binary operator except the short-circuiting
// `&&` and `||`.
func binaryOp(op token.Kind, x value.Value, y value.Value) (value.Value, error) {
	switch op {
	case token.Eq:
		return value.Bool(value.Equal(x, y)), nil
	case token.NotEq:
		return value.Bool(!value.Equal(x, y)), nil
	case token.Plus:
		return add(x, y)
	case token.Minus, token.Star, token.Slash, token.Percent, token.Pow:
		return arithmetic(op, x, y)
	case token.Less, token.LessEq, token.Greater, token.GreaterEq:
		return compare(op, x, y)
	case token.BitAnd, token.BitOr, token.BitXor:
		return bitwise(op, x, y)
	case token.In:
		return contains(x, y)
	}
	return nil, fmt.Errorf("unsupported operator %s", op)
}

// add sums numbers, concatenates strings and arrays, and merges objects
// with the right operand winning. Mixed operand types are an error.
func add(x value.Value, y value.Value) (value.Value, error) {
	switch a := x.(type) {
	case value.Number:
		if b, ok := y.(value.Number); ok {
			return value.Finite(a.Add(b))
		}
	case value.String:
		if b, ok := y.(value.String); ok {
			return a + b, nil
		}
	case *value.Array:
		if b, ok := y.(*value.Array); ok {
			return a.Appended(b.Items()...), nil
		}
	case *value.Object:
		if b, ok := y.(*value.Object); ok {
			out := a
			for key, v := range b.All() {
				out = out.With(key, v)
			}
			return out, nil
		}
	}
	return nil, operandError(token.Plus, x, y)
}

func arithmetic(op token.Kind, x value.Value, y value.Value) (value.Value, error) {
	if op == token.Star {
		if out, ok, err := repeat(x, y); ok {
			return out, err
		}
	}

	a, aok := x.(value.Number)
	b, bok := y.(value.Number)
	if !aok || !bok {
		return nil, operandError(op, x, y)
	}

	var (
		out value.Number
		err error
	)
	switch op {
	case token.Minus:
		out = a.Sub(b)
	case token.Star:
		out = a.Mul(b)
	case token.Slash:
		out, err = a.Div(b)
	case token.Percent:
		out, err = a.Mod(b)
	default:
		out = a.Pow(b)
	}
	if err != nil {
		return nil, err
	}
	return value.Finite(out)
}

// repeat handles `string * n` and `array * n`.
func repeat(x value.Value, y value.Value) (value.Value, bool, error) {
	n, ok := y.(value.Number)
	if !ok {
		return nil, false, nil
	}
	count, ok := n.Integral()
	if !ok || count < 0 {
		switch x.(type) {
		case value.String, *value.Array:
			return nil, true, fmt.Errorf("repeat count must be a non-negative integer, got %s", n)
		}
		return nil, false, nil
	}

	switch a := x.(type) {
	case value.String:
		if _, err := value.RepeatLen(len(a), count); err != nil {
			return nil, true, err
		}
		return value.String(strings.Repeat(string(a), int(count))), true, nil
	case *value.Array:
		size, err := value.RepeatLen(a.Len(), count)
		if err != nil {
			return nil, true, err
		}
		if size == 0 {
			return value.NewArray(), true, nil
		}
		items := make([]value.Value, 0, size)
		for range count {
			items = append(items, a.Items()...)
		}
		return value.NewArray(items...), true, nil
	}
	return nil, false, nil
}

func compare(op token.Kind, x value.Value, y value.Value) (value.Value, error) {
	var c int
	switch a := x.(type) {
	case value.Number:
		b, ok := y.(value.Number)
		if !ok {
			return nil, operandError(op, x, y)
		}
		c = a.Compare(b)
	case value.String:
		b, ok := y.(value.String)
		if !ok {
			return nil, operandError(op, x, y)
		}
		c = strings.Compare(string(a), string(b))
	default:
		return nil, operandError(op, x, y)
	}

	switch op {
	case token.Less:
		return value.Bool(c < 0), nil
	case token.LessEq:
		return value.Bool(c <= 0), nil
	case token.Greater:
		return value.Bool(c > 0), nil
	default:
		return value.Bool(c >= 0), nil
	}
}

func bitwise(op token.Kind, x value.Value, y value.Value) (value.Value, error) {
	if a, ok := x.(value.Bool); ok {
		b, ok := y.(value.Bool)
		if !ok {
			return nil, operandError(op, x, y)
		}
		switch op {
		case token.BitAnd:
			return a && b, nil
		case token.BitOr:
			return a || b, nil
		default:
			return value.Bool(a != b), nil
		}
	}

	a, aok := integral(x)
	b, bok := integral(y)
	if !aok || !bok {
		return nil, operandError(op, x, y)
	}
	switch op {
	case token.BitAnd:
		return value.Int(a & b), nil
	case token.BitOr:
		return value.Int(a | b), nil
	default:
		return value.Int(a ^ b), nil
	}
}

func integral(v value.Value) (int64, bool) {
	n, ok := v.(value.Number)
	if !ok {
		return 0, false
	}
	return n.Integral()
}

// contains implements `x in y` for array membership, object keys and
// substrings.
func contains(x value.Value, y value.Value) (value.Value, error) {
	switch c := y.(type) {
	case *value.Array:
		for _, item := range c.All() {
			if value.Equal(x, item) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	case *value.Object:
		key, ok := x.(value.String)
		if !ok {
			return nil, operandError(token.In, x, y)
		}
		return value.Bool(c.Has(string(key))), nil
	case value.String:
		sub, ok := x.(value.String)
		if !ok {
			return nil, operandError(token.In, x, y)
		}
		return value.Bool(strings.Contains(string(c), string(sub))), nil
	}
	return nil, operandError(token.In, x, y)
}

func unaryOp(op token.Kind, x value.Value) (value.Value, error) {
	switch op {
	case token.Minus:
		if n, ok := x.(value.Number); ok {
			return n.Neg(), nil
		}
	case token.Not:
		if b, ok := x.(value.Bool); ok {
			return !b, nil
		}
	case token.Tilde:
		if i, ok := integral(x); ok {
			return value.Int(^i), nil
		}
	}
	return nil, fmt.Errorf("cannot apply %s to %s", op, value.TypeName(x))
}
