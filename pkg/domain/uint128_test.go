package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxUint128Decimal = "340282366920938463463374607431768211455"

func TestUint128_Parse(t *testing.T) {
	t.Run("round-trips the full range", func(t *testing.T) {
		for _, s := range []string{"0", "1", "18446744073709551615", "18446744073709551616", maxUint128Decimal} {
			u, err := ParseUint128(s)
			require.NoError(t, err, s)
			assert.Equal(t, s, u.String())
		}
		assert.Equal(t, MaxUint128, MustParseUint128(maxUint128Decimal))
	})

	t.Run("rejects overflow", func(t *testing.T) {
		_, err := ParseUint128("340282366920938463463374607431768211456")
		require.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("rejects signs and junk", func(t *testing.T) {
		for _, s := range []string{"", "-1", "+1", "1.5", "1e3", " 1"} {
			_, err := ParseUint128(s)
			assert.Error(t, err, s)
		}
	})
}

func TestUint128_Arithmetic(t *testing.T) {
	t.Run("add carries into the high word", func(t *testing.T) {
		sum, err := NewUint128(^uint64(0)).Add(NewUint128(1))
		require.NoError(t, err)
		assert.Equal(t, "18446744073709551616", sum.String())
	})

	t.Run("add overflow is an error, not a wrap", func(t *testing.T) {
		_, err := MaxUint128.Add(NewUint128(1))
		require.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("sub underflow is an error", func(t *testing.T) {
		_, err := NewUint128(1).Sub(NewUint128(2))
		require.ErrorIs(t, err, ErrUnderflow)
	})

	t.Run("add then sub is identity", func(t *testing.T) {
		base := MustParseUint128("123456789012345678901234567890")
		delta := NewUint128(987654321)
		up, err := base.Add(delta)
		require.NoError(t, err)
		down, err := up.Sub(delta)
		require.NoError(t, err)
		assert.Equal(t, base, down)
	})

	t.Run("mul-div floors percentages", func(t *testing.T) {
		fee := NewUint128(10000)
		owner, err := fee.MulDivFloor(10, 100)
		require.NoError(t, err)
		agent, err := fee.MulDivFloor(90, 100)
		require.NoError(t, err)
		assert.Equal(t, NewUint128(1000), owner)
		assert.Equal(t, NewUint128(9000), agent)

		odd, err := NewUint128(7).MulDivFloor(50, 100)
		require.NoError(t, err)
		assert.Equal(t, NewUint128(3), odd)
	})

	t.Run("mul-div handles products wider than 128 bits", func(t *testing.T) {
		got, err := MaxUint128.MulDivFloor(100, 100)
		require.NoError(t, err)
		assert.Equal(t, MaxUint128, got)

		_, err = MaxUint128.MulDivFloor(2, 1)
		require.ErrorIs(t, err, ErrOverflow)
	})
}

func TestUint128_Encoding(t *testing.T) {
	t.Run("json uses decimal strings", func(t *testing.T) {
		b, err := json.Marshal(struct {
			Amount Uint128 `json:"amount"`
		}{Amount: MaxUint128})
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":"`+maxUint128Decimal+`"}`, string(b))
	})

	t.Run("json numbers are rejected", func(t *testing.T) {
		var v struct {
			Amount Uint128 `json:"amount"`
		}
		require.Error(t, json.Unmarshal([]byte(`{"amount":500}`), &v))
		require.NoError(t, json.Unmarshal([]byte(`{"amount":"500"}`), &v))
		assert.Equal(t, NewUint128(500), v.Amount)
	})

	t.Run("scan accepts numeric text and int64", func(t *testing.T) {
		var u Uint128
		require.NoError(t, u.Scan([]byte("42")))
		assert.Equal(t, NewUint128(42), u)
		require.NoError(t, u.Scan(int64(7)))
		assert.Equal(t, NewUint128(7), u)
		require.Error(t, u.Scan(int64(-1)))
	})
}
