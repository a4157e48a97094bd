package num

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Precision is the number of significant digits every result is rounded to.
// Values keep a decimal coefficient and an int32 exponent, so magnitudes far
// beyond float64 range stay finite and ordered.
const Precision = 34

// MaxExponent bounds every value: results at or above 10^(MaxExponent+1)
// saturate to Largest, and nonzero results below 10^-MaxExponent become 0.
const MaxExponent = 10_000

var (
	Zero    = Number{}
	One     = FromInt(1)
	Largest = Number{d: decimal.New(1, MaxExponent)}

	three    = decimal.NewFromInt(3)
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

type Number struct {
	d decimal.Decimal
}

func FromInt(v int64) Number {
	return Number{d: decimal.NewFromInt(v)}
}

func FromFloat(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Zero
	}
	return Number{d: norm(decimal.NewFromFloat(v))}
}

// Parse accepts plain decimals ("1234.5") and exponent forms ("15e300").
func Parse(s string) (Number, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("parse number %q: %w", s, err)
	}
	return Number{d: norm(d)}, nil
}

func MustParse(s string) Number {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Number) Add(o Number) Number { return Number{d: norm(n.d.Add(o.d))} }
func (n Number) Sub(o Number) Number { return Number{d: norm(n.d.Sub(o.d))} }

func (n Number) Mul(o Number) Number {
	if n.d.IsZero() || o.d.IsZero() {
		return Zero
	}
	if magnitude(n.d)+magnitude(o.d) > MaxExponent+2 {
		if n.d.Sign() != o.d.Sign() {
			return Number{d: Largest.d.Neg()}
		}
		return Largest
	}
	return Number{d: norm(n.d.Mul(o.d))}
}

// Div returns n/o. Division by zero yields zero; callers must not rely on it.
func (n Number) Div(o Number) Number {
	return Number{d: divide(n.d, o.d)}
}

func (n Number) MulInt(v int64) Number {
	return n.Mul(FromInt(v))
}

func (n Number) MulFloat(v float64) Number {
	return n.Mul(FromFloat(v))
}

// Pow raises n to an integer power by square-and-multiply. The rounding
// sequence depends only on (n, exp), so equal inputs always give equal results.
// Results past MaxExponent saturate like Mul.
func (n Number) Pow(exp int) Number {
	if exp == 0 {
		return One
	}
	if exp < 0 {
		return One.Div(n.Pow(-exp))
	}
	result, base := One, n
	for e := exp; e > 0; e >>= 1 {
		if e&1 == 1 {
			result = result.Mul(base)
		}
		if e > 1 {
			base = base.Mul(base)
		}
	}
	return result
}

// Floor returns the integer part; anything below 1 floors to 0.
func (n Number) Floor() Number {
	if n.d.LessThan(decimal.NewFromInt(1)) {
		return Zero
	}
	return Number{d: n.d.Floor()}
}

// Cbrt returns the real cube root, or 0 for inputs <= 0.
func (n Number) Cbrt() Number {
	if n.d.Sign() <= 0 {
		return Zero
	}
	e := magnitude(n.d) - 1
	r := ((e % 3) + 3) % 3
	scaled := n.d.Shift(int32(-(e - r)))
	x := decimal.NewFromFloat(math.Cbrt(scaled.InexactFloat64())).Shift(int32((e - r) / 3))
	for i := 0; i < 6; i++ {
		x2 := norm(x.Mul(x))
		diff := norm(norm(x2.Mul(x)).Sub(n.d))
		if diff.IsZero() {
			break
		}
		x = norm(x.Sub(divide(diff, norm(three.Mul(x2)))))
	}
	c := x.Round(0)
	if c.Sign() > 0 && c.Mul(c).Mul(c).Equal(n.d) {
		return Number{d: c}
	}
	return Number{d: norm(x)}
}

func (n Number) ClampZero() Number {
	if n.d.Sign() < 0 {
		return Zero
	}
	return n
}

func Max(a, b Number) Number {
	if a.LT(b) {
		return b
	}
	return a
}

func (n Number) Cmp(o Number) int    { return n.d.Cmp(o.d) }
func (n Number) LT(o Number) bool    { return n.d.Cmp(o.d) < 0 }
func (n Number) LTE(o Number) bool   { return n.d.Cmp(o.d) <= 0 }
func (n Number) GT(o Number) bool    { return n.d.Cmp(o.d) > 0 }
func (n Number) GTE(o Number) bool   { return n.d.Cmp(o.d) >= 0 }
func (n Number) Equal(o Number) bool { return n.d.Cmp(o.d) == 0 }
func (n Number) IsZero() bool        { return n.d.IsZero() }
func (n Number) Sign() int           { return n.d.Sign() }

func (n Number) Float64() float64 {
	return n.d.InexactFloat64()
}

// String is the lossless serialized form. Very large or very small values use
// "<coefficient>e<exponent>" so the text stays short.
func (n Number) String() string {
	if n.d.IsZero() {
		return "0"
	}
	mag := magnitude(n.d)
	if mag > 21 || mag < -6 {
		coef, exp := trimZeros(n.d)
		return coef.String() + "e" + strconv.Itoa(int(exp))
	}
	return n.d.String()
}

// Format renders the value for players: negative values show as 0, values
// under a million as grouped integers, larger ones as d.dde+N.
func (n Number) Format() string {
	if n.d.Sign() < 0 {
		return "0"
	}
	if n.d.LessThan(thousand) {
		return n.d.Round(0).String()
	}
	if n.d.LessThan(million) {
		return humanize.Comma(n.d.Round(0).IntPart())
	}
	e := magnitude(n.d) - 1
	m := n.d.Shift(int32(-e)).Round(2)
	if m.GreaterThanOrEqual(decimal.NewFromInt(10)) {
		m = m.Shift(-1).Round(2)
		e++
	}
	return m.StringFixed(2) + "e+" + strconv.Itoa(e)
}

func (n Number) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Number) UnmarshalText(text []byte) error {
	s := string(bytes.TrimSpace(text))
	if s == "" {
		*n = Zero
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*n = v
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(n.String())), nil
}

// UnmarshalJSON accepts quoted decimal strings, bare JSON numbers and null.
func (n *Number) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		*n = Zero
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		s, err := strconv.Unquote(string(raw))
		if err != nil {
			return fmt.Errorf("parse number: %w", err)
		}
		return n.UnmarshalText([]byte(s))
	}
	return n.UnmarshalText(raw)
}

func magnitude(d decimal.Decimal) int {
	return d.NumDigits() + int(d.Exponent())
}

func trimZeros(d decimal.Decimal) (*big.Int, int32) {
	coef, exp := d.Coefficient(), d.Exponent()
	ten := big.NewInt(10)
	for coef.Sign() != 0 {
		q, r := new(big.Int).QuoRem(coef, ten, new(big.Int))
		if r.Sign() != 0 {
			break
		}
		coef, exp = q, exp+1
	}
	return coef, exp
}

func norm(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	mag := magnitude(d)
	switch {
	case mag > MaxExponent+1:
		if d.Sign() < 0 {
			return Largest.d.Neg()
		}
		return Largest.d
	case mag < -MaxExponent+1:
		return decimal.Zero
	}
	if d.NumDigits() <= Precision {
		return d
	}
	return d.Round(int32(Precision - mag))
}

func divide(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() || a.IsZero() {
		return decimal.Zero
	}
	places := Precision - (magnitude(a) - magnitude(b)) + 1
	return norm(a.DivRound(b, int32(places)))
}
