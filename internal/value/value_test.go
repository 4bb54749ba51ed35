package value

import (
	"errors"
	"testing"
)

func TestParseJSONPreservesOrderAndIntegers(t *testing.T) {
	t.Parallel()

	doc := mustJSON(t, `{"z":1,"a":9007199254740993,"m":[1.5,true,null,"s"]}`)

	obj, ok := doc.(*Object)
	if !ok {
		t.Fatalf("ParseJSON() = %T, want *Object", doc)
	}
	keys := obj.Keys()
	if len(keys) != 3 || keys[0] != "z" || keys[1] != "a" || keys[2] != "m" {
		t.Fatalf("Keys() = %v, want [z a m]", keys)
	}

	big, _ := obj.Get("a")
	if n := big.(Number); !n.IsInt() || n.Int64() != 9007199254740993 {
		t.Fatalf("big integer = %v, want exact 9007199254740993", n)
	}

	assertJSON(t, doc, `{"z":1,"a":9007199254740993,"m":[1.5,true,null,"s"]}`)
}

func TestParseJSONErrors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{``, `{`, `[1,]`, `{} {}`, `{"a" 1}`} {
		if _, err := ParseJSON([]byte(input)); !errors.Is(err, ErrInvalidJSON) {
			t.Fatalf("ParseJSON(%q) error = %v, want ErrInvalidJSON", input, err)
		}
	}
}

func TestEncodeJSONIndent(t *testing.T) {
	t.Parallel()

	doc := mustJSON(t, `{"a":[1,{}],"b":"x\u2028<"}`)
	got, err := EncodeJSON(doc, "  ")
	if err != nil {
		t.Fatalf("EncodeJSON() error = %v", err)
	}

	want := "{\n  \"a\": [\n    1,\n    {}\n  ],\n  \"b\": \"x\\u2028<\"\n}"
	if string(got) != want {
		t.Fatalf("EncodeJSON() = %q, want %q", got, want)
	}
}

func TestEncodeJSONRejectsFunctions(t *testing.T) {
	t.Parallel()

	doc := NewObject(Member{Key: "f", Value: &Function{Name: "f"}})
	if _, err := EncodeJSON(doc, ""); !errors.Is(err, ErrUnserializable) {
		t.Fatalf("EncodeJSON() error = %v, want ErrUnserializable", err)
	}

	stripped := StripFunctions(doc)
	assertJSON(t, stripped, `{"f":null}`)
	if !ContainsFunction(doc) || ContainsFunction(stripped) {
		t.Fatalf("ContainsFunction() mismatch after StripFunctions")
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "numbers", a: `1`, b: `1.0`, want: true},
		{name: "object_order", a: `{"a":1,"b":2}`, b: `{"b":2,"a":1}`, want: true},
		{name: "array_order", a: `[1,2]`, b: `[2,1]`, want: false},
		{name: "kinds", a: `"1"`, b: `1`, want: false},
		{name: "nested", a: `{"a":[null,{"b":true}]}`, b: `{"a":[null,{"b":true}]}`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Equal(mustJSON(t, tt.a), mustJSON(t, tt.b)); got != tt.want {
				t.Fatalf("Equal(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestObjectWithKeepsPosition(t *testing.T) {
	t.Parallel()

	base := NewObject(Member{Key: "a", Value: Int(1)}, Member{Key: "b", Value: Int(2)})
	replaced := base.With("a", Int(3))
	extended := base.With("c", Int(4))

	assertJSON(t, replaced, `{"a":3,"b":2}`)
	assertJSON(t, extended, `{"a":1,"b":2,"c":4}`)
	assertJSON(t, base, `{"a":1,"b":2}`)

	other := base.With("d", Int(5))
	assertJSON(t, extended, `{"a":1,"b":2,"c":4}`)
	assertJSON(t, other, `{"a":1,"b":2,"d":5}`)
}

func TestParseYAMLKeepsOrder(t *testing.T) {
	t.Parallel()

	doc, err := ParseYAML([]byte("z: 1\na:\n  - x\n  - 2.5\nb: null\n"))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	assertJSON(t, doc, `{"z":1,"a":["x",2.5],"b":null}`)

	out, err := EncodeYAML(doc)
	if err != nil {
		t.Fatalf("EncodeYAML() error = %v", err)
	}
	again, err := ParseYAML(out)
	if err != nil {
		t.Fatalf("ParseYAML(EncodeYAML()) error = %v", err)
	}
	if !Equal(doc, again) {
		t.Fatalf("YAML round trip = %s, want %s", Format(again), Format(doc))
	}
}

func TestFromAny(t *testing.T) {
	t.Parallel()

	got, err := FromAny(map[string]any{"b": []any{uint8(1), int32(2)}, "a": 1.5})
	if err != nil {
		t.Fatalf("FromAny() error = %v", err)
	}
	assertJSON(t, got, `{"a":1.5,"b":[1,2]}`)

	if _, err := FromAny(struct{}{}); err == nil {
		t.Fatalf("FromAny(struct{}) error = nil")
	}

	back := ToAny(got).(map[string]any)
	if back["a"] != 1.5 {
		t.Fatalf("ToAny()[a] = %v, want 1.5", back["a"])
	}
}
