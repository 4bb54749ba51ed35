// Package stdlib provides the built-in libraries visible to every script:
// math, strings, arrays, objects, functions, json and debug.
package stdlib

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jacoelho/jsonpatcher/internal/value"
)

var (
	// ErrArgument reports a built-in called with an argument of the wrong
	// type or out of range.
	ErrArgument = errors.New("invalid argument")
	// ErrRaised is returned by debug.throw and failed debug.assert calls.
	ErrRaised = errors.New("raised")
)

// Locator is implemented by callers that can describe the source location
// of the call in progress.
type Locator interface {
	Location() string
}

// Member is one named entry of a library.
type Member struct {
	Name  string
	Doc   string
	Value value.Value
}

// Library is a named, ordered collection of members.
type Library struct {
	Name    string
	Doc     string
	members []Member
	index   map[string]int
}

func newLibrary(name string, doc string) *Library {
	return &Library{Name: name, Doc: doc, index: make(map[string]int)}
}

func (l *Library) add(name string, doc string, v value.Value) {
	l.index[name] = len(l.members)
	l.members = append(l.members, Member{Name: name, Doc: doc, Value: v})
}

// fn registers a native function. max < 0 accepts any number of trailing
// arguments.
func (l *Library) fn(name string, min int, max int, doc string, impl value.NativeFunc) {
	l.add(name, doc, &value.Function{
		Name:   l.Name + "." + name,
		Arity:  value.Arity{Min: min, Max: max},
		Native: impl,
	})
}

// Lookup returns the member called name.
func (l *Library) Lookup(name string) (Member, bool) {
	i, ok := l.index[name]
	if !ok {
		return Member{}, false
	}
	return l.members[i], true
}

// Members returns the members in registration order.
func (l *Library) Members() []Member {
	return slices.Clone(l.members)
}

// Names returns member names in registration order.
func (l *Library) Names() []string {
	out := make([]string, len(l.members))
	for i, m := range l.members {
		out[i] = m.Name
	}
	return out
}

// Object exposes the library as a script value.
func (l *Library) Object() *value.Object {
	members := make([]value.Member, len(l.members))
	for i, m := range l.members {
		members[i] = value.Member{Key: m.Name, Value: m.Value}
	}
	return value.NewObject(members...)
}

// Registry holds one instance of every built-in library. It is immutable
// after New and safe for concurrent use.
type Registry struct {
	libs    map[string]*Library
	ordered []*Library
}

// New builds the registry. debug.log writes to logger, or to slog.Default
// when logger is nil.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{libs: make(map[string]*Library)}
	for _, lib := range []*Library{
		mathLibrary(),
		stringsLibrary(),
		arraysLibrary(),
		objectsLibrary(),
		functionsLibrary(),
		jsonLibrary(),
		debugLibrary(logger),
	} {
		r.libs[lib.Name] = lib
		r.ordered = append(r.ordered, lib)
	}
	return r
}

// Library returns the library called name.
func (r *Registry) Library(name string) (*Library, bool) {
	lib, ok := r.libs[name]
	return lib, ok
}

// Libraries returns every library in a stable order.
func (r *Registry) Libraries() []*Library {
	return slices.Clone(r.ordered)
}

// Method finds the library function usable as a bound method on a value of
// the given kind, such as `list.map(f)` for arrays.
func (r *Registry) Method(kind value.Kind, name string) (*value.Function, bool) {
	var libName string
	switch kind {
	case value.KindArray:
		libName = "arrays"
	case value.KindString:
		libName = "strings"
	case value.KindFunction:
		libName = "functions"
	default:
		return nil, false
	}

	m, ok := r.libs[libName].Lookup(name)
	if !ok {
		return nil, false
	}
	fn, ok := m.Value.(*value.Function)
	if !ok || fn.Arity.Max == 0 {
		return nil, false
	}
	return fn, true
}

func argumentError(fn string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrArgument, fn, fmt.Sprintf(format, args...))
}

func typeError(fn string, index int, want string, got value.Value) error {
	return argumentError(fn, "argument %d must be %s, got %s", index+1, want, value.TypeName(got))
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) && args[i] != nil {
		return args[i]
	}
	return value.Null{}
}

func hasArg(args []value.Value, i int) bool {
	if i >= len(args) {
		return false
	}
	_, isNull := args[i].(value.Null)
	return !isNull
}

func argString(fn string, args []value.Value, i int) (string, error) {
	s, ok := arg(args, i).(value.String)
	if !ok {
		return "", typeError(fn, i, "a string", arg(args, i))
	}
	return string(s), nil
}

func argNumber(fn string, args []value.Value, i int) (value.Number, error) {
	n, ok := arg(args, i).(value.Number)
	if !ok {
		return value.Number{}, typeError(fn, i, "a number", arg(args, i))
	}
	return n, nil
}

func argInt(fn string, args []value.Value, i int) (int, error) {
	n, ok := arg(args, i).(value.Number)
	if !ok {
		return 0, typeError(fn, i, "an integer", arg(args, i))
	}
	integral, ok := n.Integral()
	if !ok {
		return 0, typeError(fn, i, "an integer", n)
	}
	return int(integral), nil
}

func argBool(fn string, args []value.Value, i int) (bool, error) {
	b, ok := arg(args, i).(value.Bool)
	if !ok {
		return false, typeError(fn, i, "a boolean", arg(args, i))
	}
	return bool(b), nil
}

func argArray(fn string, args []value.Value, i int) (*value.Array, error) {
	a, ok := arg(args, i).(*value.Array)
	if !ok {
		return nil, typeError(fn, i, "an array", arg(args, i))
	}
	return a, nil
}

func argObject(fn string, args []value.Value, i int) (*value.Object, error) {
	o, ok := arg(args, i).(*value.Object)
	if !ok {
		return nil, typeError(fn, i, "an object", arg(args, i))
	}
	return o, nil
}

func argFunction(fn string, args []value.Value, i int) (*value.Function, error) {
	f, ok := arg(args, i).(*value.Function)
	if !ok {
		return nil, typeError(fn, i, "a function", arg(args, i))
	}
	return f, nil
}

// callback invokes f with as many of args as its arity allows, so `map`
// accepts both `x -> ...` and `(x, i) -> ...`.
func callback(c value.Caller, f *value.Function, args ...value.Value) (value.Value, error) {
	if f.Arity.Max >= 0 && len(args) > f.Arity.Max {
		args = args[:f.Arity.Max]
	}
	return c.Call(f, args)
}

func truthy(fn string, v value.Value) (bool, error) {
	b, ok := v.(value.Bool)
	if !ok {
		return false, argumentError(fn, "callback must return a boolean, got %s", value.TypeName(v))
	}
	return bool(b), nil
}
