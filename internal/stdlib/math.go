package stdlib

import (
	"fmt"
	"math"

	"github.com/jacoelho/jsonpatcher/internal/value"
)

func mathLibrary() *Library {
	lib := newLibrary("math", "Numeric helpers.")

	lib.add("PI", "The ratio of a circle's circumference to its diameter.", value.Float(math.Pi))
	lib.add("E", "Euler's number.", value.Float(math.E))
	lib.add("MAX_INT", "The largest integer value.", value.Int(math.MaxInt64))
	lib.add("MIN_INT", "The smallest integer value.", value.Int(math.MinInt64))

	lib.fn("abs", 1, 1, "abs(x) returns the absolute value of x.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		n, err := argNumber("math.abs", args, 0)
		if err != nil {
			return nil, err
		}
		if n.Compare(value.Int(0)) < 0 {
			return n.Neg(), nil
		}
		return n, nil
	})
	lib.fn("floor", 1, 1, "floor(x) rounds x down to an integer.", rounding("math.floor", math.Floor))
	lib.fn("ceil", 1, 1, "ceil(x) rounds x up to an integer.", rounding("math.ceil", math.Ceil))
	lib.fn("round", 1, 1, "round(x) rounds x half away from zero.", rounding("math.round", math.Round))
	lib.fn("trunc", 1, 1, "trunc(x) drops the fractional part of x.", rounding("math.trunc", math.Trunc))
	lib.fn("sqrt", 1, 1, "sqrt(x) returns the square root of x.", unaryFloat("math.sqrt", math.Sqrt))
	lib.fn("log", 1, 1, "log(x) returns the natural logarithm of x.", unaryFloat("math.log", math.Log))
	lib.fn("sin", 1, 1, "sin(x) returns the sine of x radians.", unaryFloat("math.sin", math.Sin))
	lib.fn("cos", 1, 1, "cos(x) returns the cosine of x radians.", unaryFloat("math.cos", math.Cos))
	lib.fn("pow", 2, 2, "pow(x, y) raises x to the power y.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		x, err := argNumber("math.pow", args, 0)
		if err != nil {
			return nil, err
		}
		y, err := argNumber("math.pow", args, 1)
		if err != nil {
			return nil, err
		}
		return finite("math.pow", x.Pow(y))
	})
	lib.fn("min", 1, -1, "min(values*) returns the smallest argument.", extreme("math.min", -1))
	lib.fn("max", 1, -1, "max(values*) returns the largest argument.", extreme("math.max", 1))
	lib.fn("clamp", 3, 3, "clamp(x, low, high) limits x to the range [low, high].", func(_ value.Caller, args []value.Value) (value.Value, error) {
		x, err := argNumber("math.clamp", args, 0)
		if err != nil {
			return nil, err
		}
		low, err := argNumber("math.clamp", args, 1)
		if err != nil {
			return nil, err
		}
		high, err := argNumber("math.clamp", args, 2)
		if err != nil {
			return nil, err
		}
		if low.Compare(high) > 0 {
			return nil, argumentError("math.clamp", "low %v is greater than high %v", low, high)
		}
		switch {
		case x.Compare(low) < 0:
			return low, nil
		case x.Compare(high) > 0:
			return high, nil
		}
		return x, nil
	})
	lib.fn("isInteger", 1, 1, "isInteger(x) reports whether x has no fractional part.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		n, ok := arg(args, 0).(value.Number)
		if !ok {
			return value.Bool(false), nil
		}
		_, integral := n.Integral()
		return value.Bool(integral), nil
	})
	lib.fn("sign", 1, 1, "sign(x) returns -1, 0 or 1.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		n, err := argNumber("math.sign", args, 0)
		if err != nil {
			return nil, err
		}
		return value.Int(int64(n.Compare(value.Int(0)))), nil
	})

	return lib
}

func rounding(name string, op func(float64) float64) value.NativeFunc {
	return func(_ value.Caller, args []value.Value) (value.Value, error) {
		n, err := argNumber(name, args, 0)
		if err != nil {
			return nil, err
		}
		if n.IsInt() {
			return n, nil
		}
		rounded := value.Float(op(n.Float64()))
		if i, ok := rounded.Integral(); ok {
			return value.Int(i), nil
		}
		return rounded, nil
	}
}

func unaryFloat(name string, op func(float64) float64) value.NativeFunc {
	return func(_ value.Caller, args []value.Value) (value.Value, error) {
		n, err := argNumber(name, args, 0)
		if err != nil {
			return nil, err
		}
		return finite(name, value.Float(op(n.Float64())))
	}
}

func finite(name string, n value.Number) (value.Value, error) {
	out, err := value.Finite(n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// extreme folds its arguments, keeping the value whose comparison result
// matches want. A single array argument is spread.
func extreme(name string, want int) value.NativeFunc {
	return func(_ value.Caller, args []value.Value) (value.Value, error) {
		if len(args) == 1 {
			if list, ok := args[0].(*value.Array); ok {
				args = list.Items()
				if len(args) == 0 {
					return nil, argumentError(name, "empty array")
				}
			}
		}

		best, err := argNumber(name, args, 0)
		if err != nil {
			return nil, err
		}
		for i := 1; i < len(args); i++ {
			n, err := argNumber(name, args, i)
			if err != nil {
				return nil, err
			}
			if n.Compare(best) == want {
				best = n
			}
		}
		return best, nil
	}
}
