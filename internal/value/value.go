// Package value defines the runtime value domain of the patch language: a
// closed variant over the JSON types plus engine-internal function values.
//
// Arrays and objects are immutable once built. Every modification returns a
// new container that shares the untouched children with the original, so a
// document handed to the engine is never changed in place.
package value

import (
	"iter"
	"slices"
	"strings"
)

// Kind enumerates the variants of Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindFunction
)

var kindNames = [...]string{
	KindNull:     "null",
	KindBool:     "boolean",
	KindNumber:   "number",
	KindString:   "string",
	KindArray:    "array",
	KindObject:   "object",
	KindFunction: "function",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindByName maps a type name as written in `is` tests to its Kind.
func KindByName(name string) (Kind, bool) {
	for kind, candidate := range kindNames {
		if candidate == name {
			return Kind(kind), true
		}
	}
	return 0, false
}

// Value is implemented only by the types in this package.
type Value interface {
	Kind() Kind
	sealed()
}

// Null is the JSON null.
type Null struct{}

// Bool is a JSON boolean.
type Bool bool

// String is a JSON string.
type String string

func (Null) Kind() Kind      { return KindNull }
func (Bool) Kind() Kind      { return KindBool }
func (Number) Kind() Kind    { return KindNumber }
func (String) Kind() Kind    { return KindString }
func (*Array) Kind() Kind    { return KindArray }
func (*Object) Kind() Kind   { return KindObject }
func (*Function) Kind() Kind { return KindFunction }

func (Null) sealed()      {}
func (Bool) sealed()      {}
func (Number) sealed()    {}
func (String) sealed()    {}
func (*Array) sealed()    {}
func (*Object) sealed()   {}
func (*Function) sealed() {}

// Array is an immutable ordered sequence.
type Array struct {
	items []Value
}

// NewArray takes ownership of items.
func NewArray(items ...Value) *Array {
	return &Array{items: items}
}

func (a *Array) Len() int {
	return len(a.items)
}

// At returns the element at a normalized index; callers check bounds with
// Normalize first.
func (a *Array) At(index int) Value {
	return a.items[index]
}

// Normalize maps a possibly negative index to a position in the array.
// Negative indices count from the end.
func (a *Array) Normalize(index int) (int, bool) {
	if index < 0 {
		index += len(a.items)
	}
	if index < 0 || index >= len(a.items) {
		return 0, false
	}
	return index, true
}

// All iterates the elements in order.
func (a *Array) All() iter.Seq2[int, Value] {
	return slices.All(a.items)
}

// Items returns a copy of the elements.
func (a *Array) Items() []Value {
	return slices.Clone(a.items)
}

// With returns a copy with the element at index replaced.
func (a *Array) With(index int, v Value) *Array {
	items := slices.Clone(a.items)
	items[index] = v
	return &Array{items: items}
}

// Inserted returns a copy with v inserted before position index (0..Len).
func (a *Array) Inserted(index int, v Value) *Array {
	items := make([]Value, 0, len(a.items)+1)
	items = append(items, a.items[:index]...)
	items = append(items, v)
	items = append(items, a.items[index:]...)
	return &Array{items: items}
}

// Removed returns a copy without the element at index.
func (a *Array) Removed(index int) *Array {
	items := make([]Value, 0, len(a.items)-1)
	items = append(items, a.items[:index]...)
	items = append(items, a.items[index+1:]...)
	return &Array{items: items}
}

// Appended returns a copy with values added at the end.
func (a *Array) Appended(values ...Value) *Array {
	items := make([]Value, 0, len(a.items)+len(values))
	items = append(items, a.items...)
	items = append(items, values...)
	return &Array{items: items}
}

// Member is one key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// Object is an immutable mapping that preserves key insertion order.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject builds an object from members in order. A repeated key keeps its
// first position and its last value.
func NewObject(members ...Member) *Object {
	o := &Object{
		keys:   make([]string, 0, len(members)),
		values: make(map[string]Value, len(members)),
	}
	for _, m := range members {
		if _, ok := o.values[m.Key]; !ok {
			o.keys = append(o.keys, m.Key)
		}
		o.values[m.Key] = m.Value
	}
	return o
}

func (o *Object) Len() int {
	return len(o.keys)
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	return slices.Clone(o.keys)
}

// All iterates members in insertion order.
func (o *Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, key := range o.keys {
			if !yield(key, o.values[key]) {
				return
			}
		}
	}
}

// With returns a copy where key maps to v. Existing keys keep their position;
// new keys are appended.
func (o *Object) With(key string, v Value) *Object {
	keys := o.keys
	if _, ok := o.values[key]; !ok {
		keys = append(slices.Clip(keys), key)
	}

	values := make(map[string]Value, len(o.values)+1)
	for k, existing := range o.values {
		values[k] = existing
	}
	values[key] = v
	return &Object{keys: keys, values: values}
}

// Without returns a copy lacking key and whether the key was present.
func (o *Object) Without(key string) (*Object, bool) {
	if _, ok := o.values[key]; !ok {
		return o, false
	}

	keys := make([]string, 0, len(o.keys)-1)
	for _, k := range o.keys {
		if k != key {
			keys = append(keys, k)
		}
	}
	values := make(map[string]Value, len(o.values)-1)
	for k, existing := range o.values {
		if k != key {
			values[k] = existing
		}
	}
	return &Object{keys: keys, values: values}, true
}

// Caller invokes function values. The evaluator implements it so native
// functions can call back into script closures.
type Caller interface {
	Call(fn *Function, args []Value) (Value, error)
}

// NativeFunc implements a built-in function.
type NativeFunc func(c Caller, args []Value) (Value, error)

// Arity is the accepted argument count range. Max < 0 means unbounded.
type Arity struct {
	Min int
	Max int
}

// Accepts reports whether n arguments satisfy the arity.
func (a Arity) Accepts(n int) bool {
	return n >= a.Min && (a.Max < 0 || n <= a.Max)
}

func (a Arity) String() string {
	switch {
	case a.Max < 0:
		return "at least " + itoa(a.Min)
	case a.Min == a.Max:
		return itoa(a.Min)
	default:
		return itoa(a.Min) + " to " + itoa(a.Max)
	}
}

// Function is an engine-internal callable: either a native built-in or a
// script closure whose body the evaluator owns through Closure.
type Function struct {
	Name    string
	Arity   Arity
	Native  NativeFunc
	Closure any
}

// Bind returns a native function with receiver prepended to its arguments.
func (f *Function) Bind(receiver Value) *Function {
	max := f.Arity.Max
	if max > 0 {
		max--
	}
	min := f.Arity.Min
	if min > 0 {
		min--
	}

	return &Function{
		Name:  f.Name,
		Arity: Arity{Min: min, Max: max},
		Native: func(c Caller, args []Value) (Value, error) {
			return c.Call(f, append([]Value{receiver}, args...))
		},
	}
}

// TypeName returns the name used for v in messages and `is` tests.
func TypeName(v Value) string {
	if v == nil {
		return KindNull.String()
	}
	return v.Kind().String()
}

// Equal compares values structurally. Numbers compare by numeric value,
// object member order is ignored, and functions compare by identity.
func Equal(a Value, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}

	switch x := a.(type) {
	case Null:
		return b.Kind() == KindNull
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		return ok && x.Equal(y)
	case String:
		y, ok := b.(String)
		return ok && x == y
	case *Array:
		y, ok := b.(*Array)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i := range x.items {
			if !Equal(x.items[i], y.items[i]) {
				return false
			}
		}
		return true
	case *Object:
		y, ok := b.(*Object)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for key, xv := range x.values {
			yv, ok := y.values[key]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case *Function:
		y, ok := b.(*Function)
		return ok && x == y
	default:
		return false
	}
}

// Format renders v as compact JSON-like text for messages and logs.
func Format(v Value) string {
	var b strings.Builder
	format(&b, v)
	return b.String()
}

func format(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil, Null:
		b.WriteString("null")
	case Bool:
		if x {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case Number:
		b.WriteString(x.String())
	case String:
		b.Write(appendQuoted(nil, string(x)))
	case *Array:
		b.WriteByte('[')
		for i, item := range x.items {
			if i > 0 {
				b.WriteByte(',')
			}
			format(b, item)
		}
		b.WriteByte(']')
	case *Object:
		b.WriteByte('{')
		for i, key := range x.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.Write(appendQuoted(nil, key))
			b.WriteByte(':')
			format(b, x.values[key])
		}
		b.WriteByte('}')
	case *Function:
		b.WriteString("<function")
		if x.Name != "" {
			b.WriteByte(' ')
			b.WriteString(x.Name)
		}
		b.WriteByte('>')
	}
}

// ContainsFunction reports whether any node under v (v included) is a function.
func ContainsFunction(v Value) bool {
	switch x := v.(type) {
	case *Function:
		return true
	case *Array:
		return slices.ContainsFunc(x.items, ContainsFunction)
	case *Object:
		for _, item := range x.values {
			if ContainsFunction(item) {
				return true
			}
		}
	}
	return false
}

// StripFunctions replaces every function under v with null, returning v
// itself when nothing had to change.
func StripFunctions(v Value) Value {
	switch x := v.(type) {
	case *Function:
		return Null{}
	case *Array:
		if !ContainsFunction(x) {
			return x
		}
		items := make([]Value, len(x.items))
		for i, item := range x.items {
			items[i] = StripFunctions(item)
		}
		return &Array{items: items}
	case *Object:
		if !ContainsFunction(x) {
			return x
		}
		members := make([]Member, 0, len(x.keys))
		for key, item := range x.All() {
			members = append(members, Member{Key: key, Value: StripFunctions(item)})
		}
		return NewObject(members...)
	default:
		return v
	}
}
