package stdlib

import (
	"slices"

	"github.com/jacoelho/jsonpatcher/internal/value"
)

func functionsLibrary() *Library {
	lib := newLibrary("functions", "Helpers for function values. Also available as methods on functions.")

	lib.fn("identity", 1, 1, "identity(v) returns v.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		return arg(args, 0), nil
	})
	lib.fn("constant", 1, 1, "constant(v) returns a function that always returns v.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		return &value.Function{
			Name:  "functions.constant",
			Arity: value.Arity{Min: 0, Max: -1},
			Native: func(value.Caller, []value.Value) (value.Value, error) {
				return v, nil
			},
		}, nil
	})
	lib.fn("apply", 1, 2, "apply(f, args?) calls f with the elements of args.", func(c value.Caller, args []value.Value) (value.Value, error) {
		f, err := argFunction("functions.apply", args, 0)
		if err != nil {
			return nil, err
		}
		var callArgs []value.Value
		if hasArg(args, 1) {
			list, err := argArray("functions.apply", args, 1)
			if err != nil {
				return nil, err
			}
			callArgs = list.Items()
		}
		return c.Call(f, callArgs)
	})
	lib.fn("bind", 1, -1, "bind(f, args*) returns f with leading arguments fixed.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		f, err := argFunction("functions.bind", args, 0)
		if err != nil {
			return nil, err
		}
		bound := f
		for _, v := range args[1:] {
			bound = bound.Bind(v)
		}
		return bound, nil
	})
	lib.fn("compose", 1, -1, "compose(fs*) returns x -> f1(f2(...fn(x))).", func(_ value.Caller, args []value.Value) (value.Value, error) {
		fs := make([]*value.Function, len(args))
		for i := range args {
			f, err := argFunction("functions.compose", args, i)
			if err != nil {
				return nil, err
			}
			fs[i] = f
		}
		slices.Reverse(fs)

		return &value.Function{
			Name:  "functions.compose",
			Arity: value.Arity{Min: 1, Max: 1},
			Native: func(c value.Caller, args []value.Value) (value.Value, error) {
				v := arg(args, 0)
				for _, f := range fs {
					var err error
					if v, err = c.Call(f, []value.Value{v}); err != nil {
						return nil, err
					}
				}
				return v, nil
			},
		}, nil
	})
	lib.fn("arity", 1, 1, "arity(f) returns the minimum number of arguments f accepts.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		f, err := argFunction("functions.arity", args, 0)
		if err != nil {
			return nil, err
		}
		return value.Int(int64(f.Arity.Min)), nil
	})

	return lib
}
