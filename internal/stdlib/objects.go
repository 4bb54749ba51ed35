package stdlib

import (
	"github.com/jacoelho/jsonpatcher/internal/value"
)

func objectsLibrary() *Library {
	lib := newLibrary("objects", "Object helpers.")

	lib.fn("keys", 1, 1, "keys(obj) returns the keys in insertion order.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		obj, err := argObject("objects.keys", args, 0)
		if err != nil {
			return nil, err
		}
		keys := obj.Keys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i] = value.String(k)
		}
		return value.NewArray(out...), nil
	})
	lib.fn("values", 1, 1, "values(obj) returns the values in insertion order.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		obj, err := argObject("objects.values", args, 0)
		if err != nil {
			return nil, err
		}
		out := make([]value.Value, 0, obj.Len())
		for _, v := range obj.All() {
			out = append(out, v)
		}
		return value.NewArray(out...), nil
	})
	lib.fn("entries", 1, 1, "entries(obj) returns [key, value] pairs in insertion order.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		obj, err := argObject("objects.entries", args, 0)
		if err != nil {
			return nil, err
		}
		out := make([]value.Value, 0, obj.Len())
		for k, v := range obj.All() {
			out = append(out, value.NewArray(value.String(k), v))
		}
		return value.NewArray(out...), nil
	})
	lib.fn("fromEntries", 1, 1, "fromEntries(pairs) builds an object from [key, value] pairs.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		pairs, err := argArray("objects.fromEntries", args, 0)
		if err != nil {
			return nil, err
		}
		members := make([]value.Member, 0, pairs.Len())
		for i, item := range pairs.All() {
			pair, ok := item.(*value.Array)
			if !ok || pair.Len() != 2 {
				return nil, argumentError("objects.fromEntries", "entry %d must be a [key, value] pair", i)
			}
			key, ok := pair.At(0).(value.String)
			if !ok {
				return nil, argumentError("objects.fromEntries", "entry %d key must be a string, got %s", i, value.TypeName(pair.At(0)))
			}
			members = append(members, value.Member{Key: string(key), Value: pair.At(1)})
		}
		return value.NewObject(members...), nil
	})
	lib.fn("has", 2, 2, "has(obj, key) reports whether obj contains key.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		obj, key, err := objectAndKey("objects.has", args)
		if err != nil {
			return nil, err
		}
		return value.Bool(obj.Has(key)), nil
	})
	lib.fn("get", 2, 3, "get(obj, key, fallback?) returns obj[key], or fallback when absent.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		obj, key, err := objectAndKey("objects.get", args)
		if err != nil {
			return nil, err
		}
		if v, ok := obj.Get(key); ok {
			return v, nil
		}
		return arg(args, 2), nil
	})
	lib.fn("set", 3, 3, "set(obj, key, v) returns obj with key set to v.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		obj, key, err := objectAndKey("objects.set", args)
		if err != nil {
			return nil, err
		}
		return obj.With(key, arg(args, 2)), nil
	})
	lib.fn("remove", 2, 2, "remove(obj, key) returns obj without key.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		obj, key, err := objectAndKey("objects.remove", args)
		if err != nil {
			return nil, err
		}
		out, _ := obj.Without(key)
		return out, nil
	})
	lib.fn("merge", 2, -1, "merge(objs*) combines objects; later keys win.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		out, err := argObject("objects.merge", args, 0)
		if err != nil {
			return nil, err
		}
		for i := 1; i < len(args); i++ {
			next, err := argObject("objects.merge", args, i)
			if err != nil {
				return nil, err
			}
			for k, v := range next.All() {
				out = out.With(k, v)
			}
		}
		return out, nil
	})
	lib.fn("mergePatch", 2, 2, "mergePatch(target, patch) applies an RFC 7396 merge patch.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		target, err := argObject("objects.mergePatch", args, 0)
		if err != nil {
			return nil, err
		}
		patch, err := argObject("objects.mergePatch", args, 1)
		if err != nil {
			return nil, err
		}
		return value.MergePatch(target, patch), nil
	})
	lib.fn("size", 1, 1, "size(obj) returns the number of keys.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		obj, err := argObject("objects.size", args, 0)
		if err != nil {
			return nil, err
		}
		return value.Int(int64(obj.Len())), nil
	})

	return lib
}

func objectAndKey(name string, args []value.Value) (*value.Object, string, error) {
	obj, err := argObject(name, args, 0)
	if err != nil {
		return nil, "", err
	}
	key, err := argString(name, args, 1)
	if err != nil {
		return nil, "", err
	}
	return obj, key, nil
}
