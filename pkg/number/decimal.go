package number

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Precision number of fractional digits carried by Decimal (WAD)
const Precision = 18

var (
	// ErrOverflow result exceeds the representable range
	ErrOverflow = errors.New("arithmetic overflow")
	// ErrUnderflow result would be negative
	ErrUnderflow = errors.New("arithmetic underflow")
	// ErrDivisionByZero division by zero
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidDecimal malformed decimal text
	ErrInvalidDecimal = errors.New("invalid decimal")
)

var (
	wad      = uint256.NewInt(1_000_000_000_000_000_000)
	bpsScale = uint256.NewInt(100_000_000_000_000)    // 1e18 / 1e4
	pctScale = uint256.NewInt(10_000_000_000_000_000) // 1e18 / 1e2
	maxU64   = uint256.NewInt(^uint64(0))
)

// Decimal unsigned fixed point number, stored as value * 10^18.
// The zero value is 0 and Decimal is safe to copy.
type Decimal struct {
	v uint256.Int
}

// Zero 0
func Zero() Decimal {
	return Decimal{}
}

// One 1.0
func One() Decimal {
	return Decimal{v: *wad}
}

// FromUint64 x as a Decimal
func FromUint64(x uint64) Decimal {
	var d Decimal
	d.v.Mul(uint256.NewInt(x), wad)
	return d
}

// FromBps basis points as a fraction, 10000 => 1.0
func FromBps(bps uint64) Decimal {
	var d Decimal
	d.v.Mul(uint256.NewInt(bps), bpsScale)
	return d
}

// FromPercent percent as a fraction, 100 => 1.0
func FromPercent(pct uint64) Decimal {
	var d Decimal
	d.v.Mul(uint256.NewInt(pct), pctScale)
	return d
}

// FromScaled wraps a raw WAD-scaled integer
func FromScaled(raw *uint256.Int) Decimal {
	var d Decimal
	if raw != nil {
		d.v.Set(raw)
	}
	return d
}

// FromString parses decimal text, digits beyond Precision are truncated
func FromString(s string) (Decimal, error) {
	dec, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Decimal{}, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}

	return FromDecimal(dec)
}

// MustFromString like FromString but panics on error
func MustFromString(s string) Decimal {
	d, err := FromString(s)
	if err != nil {
		panic(err)
	}

	return d
}

// FromDecimal converts a shopspring decimal, truncating beyond Precision
func FromDecimal(dec decimal.Decimal) (Decimal, error) {
	if dec.Sign() < 0 {
		return Decimal{}, ErrUnderflow
	}

	scaled := dec.Shift(Precision).Truncate(0)
	v, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return Decimal{}, ErrOverflow
	}

	return Decimal{v: *v}, nil
}

// Pow10 10^n
func Pow10(n uint8) (Decimal, error) {
	d := One()
	ten := FromUint64(10)
	for i := uint8(0); i < n; i++ {
		var err error
		if d, err = d.Mul(ten); err != nil {
			return Decimal{}, err
		}
	}

	return d, nil
}

// Scaled raw WAD-scaled integer
func (d Decimal) Scaled() *uint256.Int {
	return new(uint256.Int).Set(&d.v)
}

// Decimal shopspring representation, exact
func (d Decimal) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(d.v.ToBig(), -Precision)
}

func (d Decimal) String() string {
	return d.Decimal().String()
}

// StringFixed rounds half up to places and pads with zeros, for display
func (d Decimal) StringFixed(places int32) string {
	return d.Decimal().StringFixed(places)
}

// Add d + o
func (d Decimal) Add(o Decimal) (Decimal, error) {
	var r Decimal
	if _, overflow := r.v.AddOverflow(&d.v, &o.v); overflow {
		return Decimal{}, ErrOverflow
	}

	return r, nil
}

// Sub d - o
func (d Decimal) Sub(o Decimal) (Decimal, error) {
	var r Decimal
	if _, underflow := r.v.SubOverflow(&d.v, &o.v); underflow {
		return Decimal{}, ErrUnderflow
	}

	return r, nil
}

// SaturatingSub d - o, or zero when o > d
func (d Decimal) SaturatingSub(o Decimal) Decimal {
	if d.Lte(o) {
		return Decimal{}
	}

	var r Decimal
	r.v.Sub(&d.v, &o.v)
	return r
}

// Mul d * o rounded down
func (d Decimal) Mul(o Decimal) (Decimal, error) {
	var r Decimal
	if _, overflow := r.v.MulDivOverflow(&d.v, &o.v, wad); overflow {
		return Decimal{}, ErrOverflow
	}

	return r, nil
}

// MulCeil d * o rounded up
func (d Decimal) MulCeil(o Decimal) (Decimal, error) {
	r, err := d.Mul(o)
	if err != nil {
		return Decimal{}, err
	}

	var rem uint256.Int
	if rem.MulMod(&d.v, &o.v, wad); !rem.IsZero() {
		return r.addUlp()
	}

	return r, nil
}

// Div d / o rounded down
func (d Decimal) Div(o Decimal) (Decimal, error) {
	if o.IsZero() {
		return Decimal{}, ErrDivisionByZero
	}

	var r Decimal
	if _, overflow := r.v.MulDivOverflow(&d.v, wad, &o.v); overflow {
		return Decimal{}, ErrOverflow
	}

	return r, nil
}

// DivCeil d / o rounded up
func (d Decimal) DivCeil(o Decimal) (Decimal, error) {
	r, err := d.Div(o)
	if err != nil {
		return Decimal{}, err
	}

	var rem uint256.Int
	if rem.MulMod(&d.v, wad, &o.v); !rem.IsZero() {
		return r.addUlp()
	}

	return r, nil
}

// Pow d^n by repeated squaring, each step rounded down
func (d Decimal) Pow(n uint64) (Decimal, error) {
	result := One()
	base := d
	for n > 0 {
		var err error
		if n&1 == 1 {
			if result, err = result.Mul(base); err != nil {
				return Decimal{}, err
			}
		}

		n >>= 1
		if n > 0 {
			if base, err = base.Mul(base); err != nil {
				return Decimal{}, err
			}
		}
	}

	return result, nil
}

func (d Decimal) addUlp() (Decimal, error) {
	var r Decimal
	if _, overflow := r.v.AddOverflow(&d.v, uint256.NewInt(1)); overflow {
		return Decimal{}, ErrOverflow
	}

	return r, nil
}

// Floor integer part
func (d Decimal) Floor() Decimal {
	var q, r Decimal
	q.v.Div(&d.v, wad)
	r.v.Mul(&q.v, wad)
	return r
}

// Ceil smallest integer >= d
func (d Decimal) Ceil() (Decimal, error) {
	f := d.Floor()
	if f.Eq(d) {
		return f, nil
	}

	return f.Add(One())
}

// Round rounds half up to the given number of fractional digits
func (d Decimal) Round(places int32) (Decimal, error) {
	if places >= Precision {
		return d, nil
	}
	if places < 0 {
		places = 0
	}

	// raw scale of one unit in the last kept digit
	unit := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(Precision-places)))

	var q, rem uint256.Int
	q.DivMod(&d.v, unit, &rem)
	// half up: rem*2 >= unit
	rem.Lsh(&rem, 1)
	if !rem.Lt(unit) {
		q.AddUint64(&q, 1)
	}

	var r Decimal
	if _, overflow := r.v.MulOverflow(&q, unit); overflow {
		return Decimal{}, ErrOverflow
	}

	return r, nil
}

// FloorUint64 integer part as uint64
func (d Decimal) FloorUint64() (uint64, error) {
	return d.Floor().toUint64()
}

// CeilUint64 ceiling as uint64
func (d Decimal) CeilUint64() (uint64, error) {
	c, err := d.Ceil()
	if err != nil {
		return 0, err
	}

	return c.toUint64()
}

// RoundUint64 half-up rounding as uint64
func (d Decimal) RoundUint64() (uint64, error) {
	r, err := d.Round(0)
	if err != nil {
		return 0, err
	}

	return r.toUint64()
}

func (d Decimal) toUint64() (uint64, error) {
	var q uint256.Int
	q.Div(&d.v, wad)
	if q.Gt(maxU64) {
		return 0, ErrOverflow
	}

	return q.Uint64(), nil
}

// Cmp -1, 0, +1
func (d Decimal) Cmp(o Decimal) int {
	return d.v.Cmp(&o.v)
}

// Eq d == o
func (d Decimal) Eq(o Decimal) bool {
	return d.v.Eq(&o.v)
}

// Lt d < o
func (d Decimal) Lt(o Decimal) bool {
	return d.v.Lt(&o.v)
}

// Lte d <= o
func (d Decimal) Lte(o Decimal) bool {
	return !d.v.Gt(&o.v)
}

// Gt d > o
func (d Decimal) Gt(o Decimal) bool {
	return d.v.Gt(&o.v)
}

// Gte d >= o
func (d Decimal) Gte(o Decimal) bool {
	return !d.v.Lt(&o.v)
}

// IsZero d == 0
func (d Decimal) IsZero() bool {
	return d.v.IsZero()
}

// Min smaller of a and b
func Min(a, b Decimal) Decimal {
	if a.Lt(b) {
		return a
	}

	return b
}

// Max larger of a and b
func Max(a, b Decimal) Decimal {
	if a.Gt(b) {
		return a
	}

	return b
}
