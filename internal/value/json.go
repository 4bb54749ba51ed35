package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidJSON wraps every decoding failure.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrUnserializable is returned when encoding a function value or a
	// non-finite number.
	ErrUnserializable = errors.New("value is not serializable")
)

// ParseJSON decodes a single JSON document, keeping object key order and
// integer precision.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidJSON)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return parseNumber(string(t))
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return NewArray(items...), nil
		case '{':
			var members []Member
			for dec.More() {
				keyToken, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyToken.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyToken)
				}
				item, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				members = append(members, Member{Key: key, Value: item})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return NewObject(members...), nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// parseNumber keeps integers as int64 and falls back to float for fractions,
// exponents and out-of-range integers.
func parseNumber(text string) (Value, error) {
	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", text)
	}
	return Float(f), nil
}

// EncodeJSON renders v as JSON. A non-empty indent produces one member per
// line; an empty indent produces compact output.
func EncodeJSON(v Value, indent string) ([]byte, error) {
	e := encoder{indent: indent}
	if err := e.encode(v, 0); err != nil {
		return nil, err
	}
	return e.buf, nil
}

type encoder struct {
	buf    []byte
	indent string
}

func (e *encoder) newline(depth int) {
	if e.indent == "" {
		return
	}
	e.buf = append(e.buf, '\n')
	for range depth {
		e.buf = append(e.buf, e.indent...)
	}
}

func (e *encoder) encode(v Value, depth int) error {
	switch x := v.(type) {
	case nil, Null:
		e.buf = append(e.buf, "null"...)
	case Bool:
		e.buf = strconv.AppendBool(e.buf, bool(x))
	case Number:
		if x.isFloat && (math.IsNaN(x.f) || math.IsInf(x.f, 0)) {
			return fmt.Errorf("%w: number %v", ErrUnserializable, x.f)
		}
		e.buf = append(e.buf, x.String()...)
	case String:
		e.buf = appendQuoted(e.buf, string(x))
	case *Array:
		if x.Len() == 0 {
			e.buf = append(e.buf, "[]"...)
			return nil
		}
		e.buf = append(e.buf, '[')
		for i, item := range x.items {
			if i > 0 {
				e.buf = append(e.buf, ',')
			}
			e.newline(depth + 1)
			if err := e.encode(item, depth+1); err != nil {
				return err
			}
		}
		e.newline(depth)
		e.buf = append(e.buf, ']')
	case *Object:
		if x.Len() == 0 {
			e.buf = append(e.buf, "{}"...)
			return nil
		}
		e.buf = append(e.buf, '{')
		for i, key := range x.keys {
			if i > 0 {
				e.buf = append(e.buf, ',')
			}
			e.newline(depth + 1)
			e.buf = appendQuoted(e.buf, key)
			e.buf = append(e.buf, ':')
			if e.indent != "" {
				e.buf = append(e.buf, ' ')
			}
			if err := e.encode(x.values[key], depth+1); err != nil {
				return err
			}
		}
		e.newline(depth)
		e.buf = append(e.buf, '}')
	case *Function:
		return fmt.Errorf("%w: %s", ErrUnserializable, Format(x))
	default:
		return fmt.Errorf("%w: %T", ErrUnserializable, v)
	}
	return nil
}

const hexDigits = "0123456789abcdef"

// appendQuoted writes s as a JSON string literal without HTML escaping.
func appendQuoted(b []byte, s string) []byte {
	b = append(b, '"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			b = append(b, '\\', '"')
		case r == '\\':
			b = append(b, '\\', '\\')
		case r == '\n':
			b = append(b, '\\', 'n')
		case r == '\r':
			b = append(b, '\\', 'r')
		case r == '\t':
			b = append(b, '\\', 't')
		case r == '\b':
			b = append(b, '\\', 'b')
		case r == '\f':
			b = append(b, '\\', 'f')
		case r < 0x20 || r == '\u2028' || r == '\u2029':
			b = append(b, '\\', 'u', hexDigits[r>>12&0xf], hexDigits[r>>8&0xf], hexDigits[r>>4&0xf], hexDigits[r&0xf])
		case r == utf8.RuneError && size == 1:
			b = append(b, `\ufffd`...)
		default:
			b = append(b, s[i:i+size]...)
		}
		i += size
	}
	return append(b, '"')
}
