package stdlib

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jacoelho/jsonpatcher/internal/value"
)

func debugLibrary(logger *slog.Logger) *Library {
	lib := newLibrary("debug", "Logging and assertions.")

	lib.fn("log", 0, -1, "log(values*) writes the values to the engine logger.", func(c value.Caller, args []value.Value) (value.Value, error) {
		attrs := []slog.Attr{slog.String("message", join(args))}
		if loc, ok := c.(Locator); ok {
			attrs = append(attrs, slog.String("at", loc.Location()))
		}
		logger.LogAttrs(context.Background(), slog.LevelInfo, "script_log", attrs...)
		return value.Null{}, nil
	})
	lib.fn("assert", 1, 2, "assert(cond, message?) fails the script when cond is false.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		ok, err := argBool("debug.assert", args, 0)
		if err != nil {
			return nil, err
		}
		if ok {
			return value.Null{}, nil
		}
		message := "assertion failed"
		if hasArg(args, 1) {
			message = "assertion failed: " + join(args[1:])
		}
		return nil, fmt.Errorf("%w: %s", ErrRaised, message)
	})
	lib.fn("throw", 0, 1, "throw(message?) fails the script with message.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		message := "error raised"
		if hasArg(args, 0) {
			message = join(args)
		}
		return nil, fmt.Errorf("%w: %s", ErrRaised, message)
	})
	lib.fn("type", 1, 1, "type(v) returns the type name of v.", func(_ value.Caller, args []value.Value) (value.Value, error) {
		return value.String(value.TypeName(arg(args, 0))), nil
	})

	return lib
}

func join(args []value.Value) string {
	parts := make([]string, len(args))
	for i, v := range args {
		if s, ok := v.(value.String); ok {
			parts[i] = string(s)
			continue
		}
		parts[i] = value.Format(v)
	}
	return strings.Join(parts, " ")
}
