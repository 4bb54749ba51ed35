package stdlib

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jacoelho/jsonpatcher/internal/value"
)

func arraysLibrary() *Library {
	lib := newLibrary("arrays", "Array helpers. Also available as methods on arrays.")

	lib.fn("length", 1, 1, "length(list) returns the number of elements.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		list, err := argArray("arrays.length", args, 0)
		if err != nil {
			return nil, err
		}
		return value.Int(int64(list.Len())), nil
	})
	lib.fn("push", 2, -1, "push(list, values*) returns list with values appended.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		list, err := argArray("arrays.push", args, 0)
		if err != nil {
			return nil, err
		}
		return list.Appended(args[1:]...), nil
	})
	lib.fn("map", 2, 2, "map(list, f) applies f(element, index) to every element.", func(c value.Caller, args []value.Value) (value.Value, error) {
		list, f, err := listAndFunction("arrays.map", args)
		if err != nil {
			return nil, err
		}
		out := make([]value.Value, 0, list.Len())
		for i, item := range list.All() {
			v, err := callback(c, f, item, value.Int(int64(i)))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return value.NewArray(out...), nil
	})
	lib.fn("filter", 2, 2, "filter(list, f) keeps the elements for which f returns true.", func(c value.Caller, args []value.Value) (value.Value, error) {
		list, f, err := listAndFunction("arrays.filter", args)
		if err != nil {
			return nil, err
		}
		var out []value.Value
		for i, item := range list.All() {
			keep, err := predicate(c, "arrays.filter", f, item, i)
			if err != nil {
				return nil, err
			}
			if keep {
				out = append(out, item)
			}
		}
		return value.NewArray(out...), nil
	})
	lib.fn("reduce", 3, 3, "reduce(list, f, initial) folds f(accumulator, element) over list.", func(c value.Caller, args []value.Value) (value.Value, error) {
		list, f, err := listAndFunction("arrays.reduce", args)
		if err != nil {
			return nil, err
		}
		acc := arg(args, 2)
		for i, item := range list.All() {
			acc, err = callback(c, f, acc, item, value.Int(int64(i)))
			if err != nil {
				return nil, err
			}
		}
		return acc, nil
	})
	lib.fn("find", 2, 2, "find(list, f) returns the first element for which f returns true, or null.", func(c value.Caller, args []value.Value) (value.Value, error) {
		list, f, err := listAndFunction("arrays.find", args)
		if err != nil {
			return nil, err
		}
		for i, item := range list.All() {
			found, err := predicate(c, "arrays.find", f, item, i)
			if err != nil {
				return nil, err
			}
			if found {
				return item, nil
			}
		}
		return value.Null{}, nil
	})
	lib.fn("any", 2, 2, "any(list, f) reports whether f returns true for some element.", quantifier("arrays.any", true))
	lib.fn("all", 2, 2, "all(list, f) reports whether f returns true for every element.", quantifier("arrays.all", false))
	lib.fn("indexOf", 2, 2, "indexOf(list, v) returns the index of the first element equal to v, or -1.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		list, err := argArray("arrays.indexOf", args, 0)
		if err != nil {
			return nil, err
		}
		return value.Int(int64(indexOf(list, arg(args, 1)))), nil
	})
	lib.fn("contains", 2, 2, "contains(list, v) reports whether some element equals v.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		list, err := argArray("arrays.contains", args, 0)
		if err != nil {
			return nil, err
		}
		return value.Bool(indexOf(list, arg(args, 1)) >= 0), nil
	})
	lib.fn("slice", 1, 3, "slice(list, start?, end?) returns elements [start, end).", func(_ value.Caller, args []value.Value) (value.Value, error) {
		list, err := argArray("arrays.slice", args, 0)
		if err != nil {
			return nil, err
		}
		start, end, err := bounds("arrays.slice", args, 1, list.Len())
		if err != nil {
			return nil, err
		}
		return value.NewArray(list.Items()[start:end]...), nil
	})
	lib.fn("reverse", 1, 1, "reverse(list) returns the elements in reverse order.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		list, err := argArray("arrays.reverse", args, 0)
		if err != nil {
			return nil, err
		}
		items := list.Items()
		slices.Reverse(items)
		return value.NewArray(items...), nil
	})
	lib.fn("sort", 1, 2, "sort(list, cmp?) sorts numbers or strings, or by cmp(a, b) returning a number.", func(c value.Caller, args []value.Value) (value.Value, error) {
		list, err := argArray("arrays.sort", args, 0)
		if err != nil {
			return nil, err
		}
		var cmp *value.Function
		if hasArg(args, 1) {
			if cmp, err = argFunction("arrays.sort", args, 1); err != nil {
				return nil, err
			}
		}

		items := list.Items()
		var failure error
		slices.SortStableFunc(items, func(a, b value.Value) int {
			if failure != nil {
				return 0
			}
			var n int
			if cmp != nil {
				n, failure = compareWith(c, cmp, a, b)
			} else {
				n, failure = compareValues("arrays.sort", a, b)
			}
			return n
		})
		if failure != nil {
			return nil, failure
		}
		return value.NewArray(items...), nil
	})
	lib.fn("join", 1, 2, "join(list, sep?) concatenates the elements as text.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		list, err := argArray("arrays.join", args, 0)
		if err != nil {
			return nil, err
		}
		sep := ""
		if hasArg(args, 1) {
			if sep, err = argString("arrays.join", args, 1); err != nil {
				return nil, err
			}
		}
		parts := make([]string, 0, list.Len())
		for _, item := range list.All() {
			if s, ok := item.(value.String); ok {
				parts = append(parts, string(s))
				continue
			}
			parts = append(parts, value.Format(item))
		}
		return value.String(strings.Join(parts, sep)), nil
	})
	lib.fn("flat", 1, 1, "flat(list) flattens one level of nested arrays.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		list, err := argArray("arrays.flat", args, 0)
		if err != nil {
			return nil, err
		}
		var out []value.Value
		for _, item := range list.All() {
			if inner, ok := item.(*value.Array); ok {
				out = append(out, inner.Items()...)
				continue
			}
			out = append(out, item)
		}
		return value.NewArray(out...), nil
	})
	lib.fn("range", 1, 3, "range(end) or range(start, end, step?) returns a list of integers.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		start, end, step := 0, 0, 1
		var err error
		if len(args) == 1 {
			if end, err = argInt("arrays.range", args, 0); err != nil {
				return nil, err
			}
		} else {
			if start, err = argInt("arrays.range", args, 0); err != nil {
				return nil, err
			}
			if end, err = argInt("arrays.range", args, 1); err != nil {
				return nil, err
			}
			if hasArg(args, 2) {
				if step, err = argInt("arrays.range", args, 2); err != nil {
					return nil, err
				}
			}
		}
		if step == 0 {
			return nil, argumentError("arrays.range", "step must not be zero")
		}
		if span := (float64(end) - float64(start)) / float64(step); span > value.MaxLen {
			return nil, fmt.Errorf("arrays.range: %w: %.0f elements exceed %d", value.ErrTooLarge, span, value.MaxLen)
		}

		var out []value.Value
		for i := start; (step > 0 && i < end) || (step < 0 && i > end); i += step {
			out = append(out, value.Int(int64(i)))
		}
		return value.NewArray(out...), nil
	})
	lib.fn("first", 1, 1, "first(list) returns the first element, or null.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		list, err := argArray("arrays.first", args, 0)
		if err != nil {
			return nil, err
		}
		if list.Len() == 0 {
			return value.Null{}, nil
		}
		return list.At(0), nil
	})
	lib.fn("last", 1, 1, "last(list) returns the last element, or null.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		list, err := argArray("arrays.last", args, 0)
		if err != nil {
			return nil, err
		}
		if list.Len() == 0 {
			return value.Null{}, nil
		}
		return list.At(list.Len() - 1), nil
	})

	return lib
}

func listAndFunction(name string, args []value.Value) (*value.Array, *value.Function, error) {
	list, err := argArray(name, args, 0)
	if err != nil {
		return nil, nil, err
	}
	f, err := argFunction(name, args, 1)
	if err != nil {
		return nil, nil, err
	}
	return list, f, nil
}

func predicate(c value.Caller, name string, f *value.Function, item value.Value, i int) (bool, error) {
	v, err := callback(c, f, item, value.Int(int64(i)))
	if err != nil {
		return false, err
	}
	return truthy(name, v)
}

// quantifier stops at the first element whose predicate result equals stop.
func quantifier(name string, stop bool) value.NativeFunc {
	return func(c value.Caller, args []value.Value) (value.Value, error) {
		list, f, err := listAndFunction(name, args)
		if err != nil {
			return nil, err
		}
		for i, item := range list.All() {
			ok, err := predicate(c, name, f, item, i)
			if err != nil {
				return nil, err
			}
			if ok == stop {
				return value.Bool(stop), nil
			}
		}
		return value.Bool(!stop), nil
	}
}

func indexOf(list *value.Array, v value.Value) int {
	for i, item := range list.All() {
		if value.Equal(item, v) {
			return i
		}
	}
	return -1
}

func compareWith(c value.Caller, cmp *value.Function, a value.Value, b value.Value) (int, error) {
	result, err := callback(c, cmp, a, b)
	if err != nil {
		return 0, err
	}
	n, ok := result.(value.Number)
	if !ok {
		return 0, argumentError("arrays.sort", "comparator must return a number, got %s", value.TypeName(result))
	}
	return n.Compare(value.Int(0)), nil
}

// compareValues orders two numbers or two strings.
func compareValues(name string, a value.Value, b value.Value) (int, error) {
	switch x := a.(type) {
	case value.Number:
		if y, ok := b.(value.Number); ok {
			return x.Compare(y), nil
		}
	case value.String:
		if y, ok := b.(value.String); ok {
			return strings.Compare(string(x), string(y)), nil
		}
	}
	return 0, argumentError(name, "cannot compare %s with %s", value.TypeName(a), value.TypeName(b))
}
