package value

import (
	"errors"
	"math"
	"testing"
)

func TestNumberArithmetic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  Number
		want Number
	}{
		{name: "int_add", got: Int(2).Add(Int(3)), want: Int(5)},
		{name: "mixed_add", got: Int(2).Add(Float(0.5)), want: Float(2.5)},
		{name: "add_overflow", got: Int(math.MaxInt64).Add(Int(1)), want: Float(float64(math.MaxInt64) + 1)},
		{name: "sub", got: Int(2).Sub(Int(5)), want: Int(-3)},
		{name: "mul", got: Int(6).Mul(Int(7)), want: Int(42)},
		{name: "mul_overflow", got: Int(math.MaxInt64).Mul(Int(2)), want: Float(float64(math.MaxInt64) * 2)},
		{name: "pow_int", got: Int(2).Pow(Int(10)), want: Int(1024)},
		{name: "pow_negative_exponent", got: Int(2).Pow(Int(-1)), want: Float(0.5)},
		{name: "neg_min", got: Int(math.MinInt64).Neg(), want: Float(-float64(math.MinInt64))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.got.IsInt() != tt.want.IsInt() || !tt.got.Equal(tt.want) {
				t.Fatalf("got %v (int=%v), want %v (int=%v)", tt.got, tt.got.IsInt(), tt.want, tt.want.IsInt())
			}
		})
	}
}

func TestNumberDivision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		a, b    Number
		want    Number
		wantErr error
	}{
		{name: "exact", a: Int(6), b: Int(3), want: Int(2)},
		{name: "inexact", a: Int(7), b: Int(2), want: Float(3.5)},
		{name: "float", a: Float(1), b: Int(4), want: Float(0.25)},
		{name: "zero", a: Int(1), b: Int(0), wantErr: ErrDivisionByZero},
		{name: "float_zero", a: Int(1), b: Float(0), wantErr: ErrDivisionByZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.a.Div(tt.b)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Div() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (got.IsInt() != tt.want.IsInt() || !got.Equal(tt.want)) {
				t.Fatalf("Div() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNumberModKeepsDividendSign(t *testing.T) {
	t.Parallel()

	got, err := Int(-7).Mod(Int(3))
	if err != nil || !got.Equal(Int(-1)) {
		t.Fatalf("Mod() = (%v, %v), want (-1, nil)", got, err)
	}
	if _, err := Int(1).Mod(Int(0)); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("Mod() error = %v, want ErrDivisionByZero", err)
	}
}

func TestNumberEqualityAcrossRepresentations(t *testing.T) {
	t.Parallel()

	if !Int(1).Equal(Float(1.0)) {
		t.Fatalf("Int(1).Equal(Float(1.0)) = false, want true")
	}
	if got := Int(1).Compare(Float(1.5)); got != -1 {
		t.Fatalf("Compare() = %d, want -1", got)
	}
	if got, ok := Float(3).Integral(); !ok || got != 3 {
		t.Fatalf("Integral() = (%d, %v), want (3, true)", got, ok)
	}
	if _, ok := Float(3.5).Integral(); ok {
		t.Fatalf("Integral() ok = true for 3.5")
	}
}

func TestNumberString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Number
		want string
	}{
		{in: Int(-12), want: "-12"},
		{in: Float(2.5), want: "2.5"},
		{in: Float(3), want: "3"},
		{in: Float(1e21), want: "1e+21"},
		{in: Float(1e-7), want: "1e-7"},
	}

	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Fatalf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFinite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      Number
		wantErr bool
	}{
		{name: "int", in: Int(math.MaxInt64)},
		{name: "float", in: Float(1e308)},
		{name: "overflow", in: Float(1e308).Mul(Int(10)), wantErr: true},
		{name: "negative_overflow", in: Float(-1e308).Add(Float(-1e308)), wantErr: true},
		{name: "nan", in: Float(math.NaN()), wantErr: true},
	}

	for _, tt := range tests {
		_, err := Finite(tt.in)
		if tt.wantErr != errors.Is(err, ErrNotFinite) {
			t.Fatalf("%s: Finite(%v) error = %v, want error %v", tt.name, tt.in, err, tt.wantErr)
		}
		if tt.in.IsFinite() == tt.wantErr {
			t.Fatalf("%s: IsFinite() = %v", tt.name, tt.in.IsFinite())
		}
	}
}

func TestRepeatLen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		unit    int
		count   int64
		want    int
		wantErr bool
	}{
		{name: "small", unit: 3, count: 4, want: 12},
		{name: "empty_unit", unit: 0, count: math.MaxInt64, want: 0},
		{name: "zero_count", unit: 5, count: 0, want: 0},
		{name: "at_limit", unit: 1, count: MaxLen, want: MaxLen},
		{name: "over_limit", unit: 2, count: MaxLen/2 + 1, wantErr: true},
		{name: "product_overflow", unit: 1 << 40, count: 1 << 40, wantErr: true},
		{name: "huge_count", unit: 1, count: math.MaxInt64, wantErr: true},
	}

	for _, tt := range tests {
		got, err := RepeatLen(tt.unit, tt.count)
		if tt.wantErr {
			if !errors.Is(err, ErrTooLarge) {
				t.Fatalf("%s: RepeatLen() error = %v, want ErrTooLarge", tt.name, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%s: RepeatLen() = %d, %v, want %d", tt.name, got, err, tt.want)
		}
	}
}
