package stdlib

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jacoelho/jsonpatcher/internal/value"
)

// uuidNamespace scopes the name-based UUIDs produced by strings.uuid.
var uuidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/jacoelho/jsonpatcher"))

func stringsLibrary() *Library {
	lib := newLibrary("strings", "Text helpers. Also available as methods on strings.")

	lib.fn("length", 1, 1, "length(s) returns the number of characters in s.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		s, err := argString("strings.length", args, 0)
		if err != nil {
			return nil, err
		}
		return value.Int(int64(utf8.RuneCountInString(s))), nil
	})
	lib.fn("upper", 1, 1, "upper(s) converts s to upper case.", mapString("strings.upper", strings.ToUpper))
	lib.fn("lower", 1, 1, "lower(s) converts s to lower case.", mapString("strings.lower", strings.ToLower))
	lib.fn("trim", 1, 1, "trim(s) removes surrounding whitespace.", mapString("strings.trim", strings.TrimSpace))
	lib.fn("startsWith", 2, 2, "startsWith(s, prefix) reports whether s begins with prefix.", stringPredicate("strings.startsWith", strings.HasPrefix))
	lib.fn("endsWith", 2, 2, "endsWith(s, suffix) reports whether s ends with suffix.", stringPredicate("strings.endsWith", strings.HasSuffix))
	lib.fn("contains", 2, 2, "contains(s, sub) reports whether sub occurs in s.", stringPredicate("strings.contains", strings.Contains))
	lib.fn("indexOf", 2, 2, "indexOf(s, sub) returns the character index of sub in s, or -1.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		s, sub, err := twoStrings("strings.indexOf", args)
		if err != nil {
			return nil, err
		}
		i := strings.Index(s, sub)
		if i < 0 {
			return value.Int(-1), nil
		}
		return value.Int(int64(utf8.RuneCountInString(s[:i]))), nil
	})
	lib.fn("split", 2, 2, "split(s, sep) splits s around each sep.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		s, sep, err := twoStrings("strings.split", args)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(s, sep)
		items := make([]value.Value, len(parts))
		for i, part := range parts {
			items[i] = value.String(part)
		}
		return value.NewArray(items...), nil
	})
	lib.fn("replace", 3, 3, "replace(s, old, new) replaces every old with new.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		s, old, err := twoStrings("strings.replace", args)
		if err != nil {
			return nil, err
		}
		replacement, err := argString("strings.replace", args, 2)
		if err != nil {
			return nil, err
		}
		return value.String(strings.ReplaceAll(s, old, replacement)), nil
	})
	lib.fn("substring", 2, 3, "substring(s, start, end?) returns characters [start, end).", func(_ value.Caller, args []value.Value) (value.Value, error) {
		s, err := argString("strings.substring", args, 0)
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		start, end, err := bounds("strings.substring", args, 1, len(runes))
		if err != nil {
			return nil, err
		}
		return value.String(string(runes[start:end])), nil
	})
	lib.fn("charAt", 2, 2, "charAt(s, i) returns the character at index i.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		s, err := argString("strings.charAt", args, 0)
		if err != nil {
			return nil, err
		}
		i, err := argInt("strings.charAt", args, 1)
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return nil, argumentError("strings.charAt", "index %d out of range for length %d", i, len(runes))
		}
		return value.String(string(runes[i])), nil
	})
	lib.fn("repeat", 2, 2, "repeat(s, n) concatenates n copies of s.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		s, err := argString("strings.repeat", args, 0)
		if err != nil {
			return nil, err
		}
		n, err := argInt("strings.repeat", args, 1)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, argumentError("strings.repeat", "negative count %d", n)
		}
		if _, err := value.RepeatLen(len(s), int64(n)); err != nil {
			return nil, fmt.Errorf("strings.repeat: %w", err)
		}
		return value.String(strings.Repeat(s, n)), nil
	})
	lib.fn("chars", 1, 1, "chars(s) splits s into single characters.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		s, err := argString("strings.chars", args, 0)
		if err != nil {
			return nil, err
		}
		var items []value.Value
		for _, r := range s {
			items = append(items, value.String(string(r)))
		}
		return value.NewArray(items...), nil
	})
	lib.fn("uuid", 1, 1, "uuid(name) returns a stable name-based UUID for name.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		name, err := argString("strings.uuid", args, 0)
		if err != nil {
			return nil, err
		}
		return value.String(uuid.NewSHA1(uuidNamespace, []byte(name)).String()), nil
	})
	lib.fn("string", 1, 1, "string(v) renders any value as text.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		if s, ok := arg(args, 0).(value.String); ok {
			return s, nil
		}
		return value.String(value.Format(arg(args, 0))), nil
	})

	return lib
}

func mapString(name string, op func(string) string) value.NativeFunc {
	return func(_ value.Caller, args []value.Value) (value.Value, error) {
		s, err := argString(name, args, 0)
		if err != nil {
			return nil, err
		}
		return value.String(op(s)), nil
	}
}

func stringPredicate(name string, op func(string, string) bool) value.NativeFunc {
	return func(_ value.Caller, args []value.Value) (value.Value, error) {
		a, b, err := twoStrings(name, args)
		if err != nil {
			return nil, err
		}
		return value.Bool(op(a, b)), nil
	}
}

func twoStrings(name string, args []value.Value) (string, string, error) {
	a, err := argString(name, args, 0)
	if err != nil {
		return "", "", err
	}
	b, err := argString(name, args, 1)
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

// bounds reads optional start/end arguments at positions i and i+1,
// resolving negative values from the end of a sequence of length n.
func bounds(name string, args []value.Value, i int, n int) (int, int, error) {
	start := 0
	end := n

	if hasArg(args, i) {
		v, err := argInt(name, args, i)
		if err != nil {
			return 0, 0, err
		}
		start = v
	}
	if hasArg(args, i+1) {
		v, err := argInt(name, args, i+1)
		if err != nil {
			return 0, 0, err
		}
		end = v
	}

	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	start = min(max(start, 0), n)
	end = min(max(end, start), n)
	return start, end, nil
}
