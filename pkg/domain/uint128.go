package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/bits"
	"strconv"
)

var (
	// ErrOverflow is returned when a result does not fit in 128 bits.
	ErrOverflow = errors.New("uint128 overflow")
	// ErrUnderflow is returned when a subtraction would go below zero.
	ErrUnderflow = errors.New("uint128 underflow")
)

// Uint128 is an unsigned 128-bit amount. All arithmetic is checked; nothing
// wraps. It serializes as a decimal string so JSON clients never lose precision.
type Uint128 struct {
	hi, lo uint64
}

// ZeroUint128 is the additive identity.
var ZeroUint128 = Uint128{}

// MaxUint128 is 2^128 - 1.
var MaxUint128 = Uint128{hi: ^uint64(0), lo: ^uint64(0)}

// NewUint128 lifts a uint64.
func NewUint128(v uint64) Uint128 {
	return Uint128{lo: v}
}

// ParseUint128 parses a base-10 string with no sign and no separators.
func ParseUint128(s string) (Uint128, error) {
	if s == "" {
		return Uint128{}, fmt.Errorf("parse uint128: empty string")
	}
	var u Uint128
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return Uint128{}, fmt.Errorf("parse uint128 %q: invalid digit", s)
		}
		next, ok := u.mul64(10)
		if !ok {
			return Uint128{}, fmt.Errorf("parse uint128 %q: %w", s, ErrOverflow)
		}
		next, err := next.Add(NewUint128(uint64(c - '0')))
		if err != nil {
			return Uint128{}, fmt.Errorf("parse uint128 %q: %w", s, err)
		}
		u = next
	}
	return u, nil
}

// MustParseUint128 is ParseUint128 for constants and tests.
func MustParseUint128(s string) Uint128 {
	u, err := ParseUint128(s)
	if err != nil {
		panic(err)
	}
	return u
}

func (u Uint128) IsZero() bool {
	return u.hi == 0 && u.lo == 0
}

// Cmp returns -1, 0 or +1.
func (u Uint128) Cmp(v Uint128) int {
	switch {
	case u.hi < v.hi:
		return -1
	case u.hi > v.hi:
		return 1
	case u.lo < v.lo:
		return -1
	case u.lo > v.lo:
		return 1
	}
	return 0
}

func (u Uint128) LessThan(v Uint128) bool {
	return u.Cmp(v) < 0
}

// Add returns u+v or ErrOverflow.
func (u Uint128) Add(v Uint128) (Uint128, error) {
	lo, carry := bits.Add64(u.lo, v.lo, 0)
	hi, carry := bits.Add64(u.hi, v.hi, carry)
	if carry != 0 {
		return Uint128{}, ErrOverflow
	}
	return Uint128{hi: hi, lo: lo}, nil
}

// Sub returns u-v or ErrUnderflow.
func (u Uint128) Sub(v Uint128) (Uint128, error) {
	lo, borrow := bits.Sub64(u.lo, v.lo, 0)
	hi, borrow := bits.Sub64(u.hi, v.hi, borrow)
	if borrow != 0 {
		return Uint128{}, ErrUnderflow
	}
	return Uint128{hi: hi, lo: lo}, nil
}

// MulDivFloor returns floor(u*num/den) using a 192-bit intermediate, so the
// product itself never overflows.
func (u Uint128) MulDivFloor(num, den uint64) (Uint128, error) {
	if den == 0 {
		return Uint128{}, errors.New("uint128: division by zero")
	}
	p1hi, p1lo := bits.Mul64(u.lo, num)
	p2hi, p2lo := bits.Mul64(u.hi, num)
	mid, carry := bits.Add64(p2lo, p1hi, 0)
	top := p2hi + carry

	q2, r := bits.Div64(0, top, den)
	q1, r := bits.Div64(r, mid, den)
	q0, _ := bits.Div64(r, p1lo, den)
	if q2 != 0 {
		return Uint128{}, ErrOverflow
	}
	return Uint128{hi: q1, lo: q0}, nil
}

// Float64 approximates the value for metrics.
func (u Uint128) Float64() float64 {
	return float64(u.hi)*(1<<64) + float64(u.lo)
}

func (u Uint128) String() string {
	if u.hi == 0 {
		return strconv.FormatUint(u.lo, 10)
	}
	const base = 10_000_000_000_000_000_000 // 1e19, largest power of ten in a uint64
	q, r := u.divmod64(base)
	return q.String() + fmt.Sprintf("%019d", r)
}

func (u Uint128) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *Uint128) UnmarshalText(text []byte) error {
	v, err := ParseUint128(string(text))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Value stores the amount as decimal text (NUMERIC columns).
func (u Uint128) Value() (driver.Value, error) {
	return u.String(), nil
}

func (u *Uint128) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*u = Uint128{}
		return nil
	case string:
		return u.UnmarshalText([]byte(v))
	case []byte:
		return u.UnmarshalText(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("scan uint128: negative value %d", v)
		}
		*u = NewUint128(uint64(v))
		return nil
	default:
		return fmt.Errorf("scan uint128: unsupported type %T", src)
	}
}

func (u Uint128) mul64(m uint64) (Uint128, bool) {
	hiOfLo, lo := bits.Mul64(u.lo, m)
	hiOfHi, hi := bits.Mul64(u.hi, m)
	if hiOfHi != 0 {
		return Uint128{}, false
	}
	hi, carry := bits.Add64(hi, hiOfLo, 0)
	if carry != 0 {
		return Uint128{}, false
	}
	return Uint128{hi: hi, lo: lo}, true
}

func (u Uint128) divmod64(d uint64) (Uint128, uint64) {
	qhi := u.hi / d
	rhi := u.hi % d
	qlo, r := bits.Div64(rhi, u.lo, d)
	return Uint128{hi: qhi, lo: qlo}, r
}
