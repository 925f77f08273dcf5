// internal/models/amount_test.go
package models

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	a, err := ParseAmount("0.25")
	require.NoError(t, err)
	assert.Equal(t, "0.25", a.String())

	b, err := ParseAmount("1250")
	require.NoError(t, err)
	assert.Equal(t, "1250", b.String())

	_, err = ParseAmount("")
	assert.Error(t, err)

	_, err = ParseAmount("1/3")
	assert.Error(t, err)

	_, err = ParseAmount("1e18")
	assert.Error(t, err)

	_, err = ParseAmount("abc")
	assert.Error(t, err)
}

func TestAmountArithmeticIsExact(t *testing.T) {
	// 0.1 + 0.2 must be exactly 0.3; float64 would drift.
	sum := MustAmount("0.1").Add(MustAmount("0.2"))
	assert.True(t, sum.Equal(MustAmount("0.3")))
	assert.Equal(t, "0.3", sum.String())

	// Repeated add/sub cycles converge back to the origin.
	v := MustAmount("1.0")
	for i := 0; i < 1000; i++ {
		v = v.Add(MustAmount("0.001"))
	}
	for i := 0; i < 1000; i++ {
		v = v.Sub(MustAmount("0.001"))
	}
	assert.True(t, v.Equal(MustAmount("1")))
}

func TestAmountClaimTransition(t *testing.T) {
	pending := MustAmount("0.25")
	claimed := MustAmount("1.0")

	claimed = claimed.Add(pending)
	pending = pending.Sub(pending)

	assert.Equal(t, "0", pending.String())
	assert.Equal(t, "1.25", claimed.String())
}

func TestAmountZeroValue(t *testing.T) {
	var a Amount
	assert.True(t, a.IsZero())
	assert.Equal(t, 0, a.Sign())
	assert.Equal(t, "0", a.String())
	assert.True(t, a.Equal(ZeroAmount()))
}

func TestAmountUnitsRoundTrip(t *testing.T) {
	units := big.NewInt(250_000_000_000_000_000) // 0.25 at 18 decimals
	a := AmountFromUnits(units, 18)
	assert.Equal(t, "0.25", a.String())
	assert.Equal(t, units.String(), a.Units(18).String())
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(MustAmount("42.5"))
	require.NoError(t, err)
	assert.Equal(t, `"42.5"`, string(data))

	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`"0.125"`), &a))
	assert.True(t, a.Equal(MustAmount("0.125")))

	assert.Error(t, json.Unmarshal([]byte(`"bogus"`), &a))
}

func TestAmountCompare(t *testing.T) {
	assert.Equal(t, -1, MustAmount("1.5").Cmp(MustAmount("2")))
	assert.Equal(t, 1, MustAmount("2.5").Cmp(MustAmount("2")))
	assert.Equal(t, 0, MustAmount("2.50").Cmp(MustAmount("2.5")))
	assert.Equal(t, -1, MustAmount("-0.5").Sign())
}
