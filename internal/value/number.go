package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrDivisionByZero is returned by Div and Mod for a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrNotFinite reports a result that overflowed to infinity or is NaN.
	ErrNotFinite = errors.New("result is not a finite number")
	// ErrTooLarge reports a string or array that would exceed MaxLen.
	ErrTooLarge = errors.New("result too large")
)

// MaxLen bounds the length of strings and arrays built by repetition.
const MaxLen = 1 << 24

// Number is either an integer or a float. Integer arithmetic stays integral
// until it overflows; any float operand promotes the result to float.
type Number struct {
	i       int64
	f       float64
	isFloat bool
}

func Int(i int64) Number {
	return Number{i: i}
}

func Float(f float64) Number {
	return Number{f: f, isFloat: true}
}

func (n Number) IsInt() bool {
	return !n.isFloat
}

// Int64 returns the integer value, truncating floats.
func (n Number) Int64() int64 {
	if n.isFloat {
		return int64(n.f)
	}
	return n.i
}

// IsFinite reports whether n is neither infinite nor NaN.
func (n Number) IsFinite() bool {
	return !n.isFloat || !math.IsInf(n.f, 0) && !math.IsNaN(n.f)
}

// Finite returns n, or ErrNotFinite when n is infinite or NaN.
func Finite(n Number) (Number, error) {
	if !n.IsFinite() {
		return Number{}, fmt.Errorf("%w: %s", ErrNotFinite, strconv.FormatFloat(n.f, 'g', -1, 64))
	}
	return n, nil
}

// RepeatLen returns unit*count, or ErrTooLarge when the product exceeds
// MaxLen.
func RepeatLen(unit int, count int64) (int, error) {
	if unit <= 0 || count <= 0 {
		return 0, nil
	}
	if count > MaxLen || int64(unit) > MaxLen/count {
		return 0, fmt.Errorf("%w: %d copies of length %d exceed %d", ErrTooLarge, count, unit, MaxLen)
	}
	return unit * int(count), nil
}

func (n Number) Float64() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

// Integral returns the value as an int64 when it has no fractional part and
// fits, whatever its representation.
func (n Number) Integral() (int64, bool) {
	if !n.isFloat {
		return n.i, true
	}
	if math.IsNaN(n.f) || math.IsInf(n.f, 0) || n.f != math.Trunc(n.f) {
		return 0, false
	}
	if n.f < math.MinInt64 || n.f >= math.MaxInt64 {
		return 0, false
	}
	return int64(n.f), true
}

func (n Number) String() string {
	if !n.isFloat {
		return strconv.FormatInt(n.i, 10)
	}
	return string(appendFloat(nil, n.f))
}

// appendFloat formats like encoding/json: plain notation for ordinary
// magnitudes, exponent notation outside [1e-6, 1e21).
func appendFloat(b []byte, f float64) []byte {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	b = strconv.AppendFloat(b, f, format, -1, 64)
	if format == 'e' {
		n := len(b)
		if n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	return b
}

func (n Number) Equal(other Number) bool {
	if !n.isFloat && !other.isFloat {
		return n.i == other.i
	}
	return n.Float64() == other.Float64()
}

// Compare returns -1, 0 or 1. NaN compares equal to everything.
func (n Number) Compare(other Number) int {
	if !n.isFloat && !other.isFloat {
		switch {
		case n.i < other.i:
			return -1
		case n.i > other.i:
			return 1
		default:
			return 0
		}
	}

	a, b := n.Float64(), other.Float64()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (n Number) Neg() Number {
	if n.isFloat {
		return Float(-n.f)
	}
	if n.i == math.MinInt64 {
		return Float(-float64(n.i))
	}
	return Int(-n.i)
}

func (n Number) Add(other Number) Number {
	if n.isFloat || other.isFloat {
		return Float(n.Float64() + other.Float64())
	}
	a, b := n.i, other.i
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return Float(float64(a) + float64(b))
	}
	return Int(a + b)
}

func (n Number) Sub(other Number) Number {
	if n.isFloat || other.isFloat {
		return Float(n.Float64() - other.Float64())
	}
	a, b := n.i, other.i
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return Float(float64(a) - float64(b))
	}
	return Int(a - b)
}

func (n Number) Mul(other Number) Number {
	if n.isFloat || other.isFloat {
		return Float(n.Float64() * other.Float64())
	}
	product, ok := mulInt(n.i, other.i)
	if !ok {
		return Float(float64(n.i) * float64(other.i))
	}
	return Int(product)
}

func mulInt(a int64, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	product := a * b
	if product/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return product, true
}

// Div yields an integer only when both operands are integers and the
// division is exact.
func (n Number) Div(other Number) (Number, error) {
	if other.isZero() {
		return Number{}, ErrDivisionByZero
	}
	if n.isFloat || other.isFloat {
		return Float(n.Float64() / other.Float64()), nil
	}
	a, b := n.i, other.i
	if a%b == 0 && !(a == math.MinInt64 && b == -1) {
		return Int(a / b), nil
	}
	return Float(float64(a) / float64(b)), nil
}

// Mod takes the sign of the dividend.
func (n Number) Mod(other Number) (Number, error) {
	if other.isZero() {
		return Number{}, ErrDivisionByZero
	}
	if n.isFloat || other.isFloat {
		return Float(math.Mod(n.Float64(), other.Float64())), nil
	}
	if other.i == -1 {
		return Int(0), nil
	}
	return Int(n.i % other.i), nil
}

// Pow stays integral for integer bases raised to non-negative integer
// exponents whose result fits in an int64.
func (n Number) Pow(other Number) Number {
	if !n.isFloat && !other.isFloat && other.i >= 0 {
		if result, ok := powInt(n.i, other.i); ok {
			return Int(result)
		}
	}
	return Float(math.Pow(n.Float64(), other.Float64()))
}

func powInt(base int64, exp int64) (int64, bool) {
	result := int64(1)
	for exp > 0 {
		var ok bool
		if exp&1 == 1 {
			if result, ok = mulInt(result, base); !ok {
				return 0, false
			}
		}
		exp >>= 1
		if exp > 0 {
			if base, ok = mulInt(base, base); !ok {
				return 0, false
			}
		}
	}
	return result, true
}

func (n Number) isZero() bool {
	if n.isFloat {
		return n.f == 0
	}
	return n.i == 0
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
