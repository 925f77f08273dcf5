// internal/models/amount.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Amount is an exact decimal value in the ledger's native unit. All royalty
// arithmetic goes through Amount; float64 is never used for balances because
// repeated reconciliation would accumulate rounding drift.
type Amount struct {
	rat *big.Rat
}

var ratTen = big.NewRat(10, 1)

func ZeroAmount() Amount {
	return Amount{rat: new(big.Rat)}
}

// ParseAmount parses a decimal string such as "0.25" or "1250".
func ParseAmount(s string) (Amount, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Amount{}, fmt.Errorf("amount is empty")
	}
	if strings.ContainsAny(trimmed, "/eE") {
		return Amount{}, fmt.Errorf("amount %q is not a plain decimal", s)
	}
	rat, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	return Amount{rat: rat}, nil
}

// MustAmount is a test/seed helper; it panics on malformed input.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromUnits converts an integer count of the smallest ledger unit
// (e.g. wei) into an Amount using the token's decimal places.
func AmountFromUnits(units *big.Int, decimals int) Amount {
	rat := new(big.Rat).SetInt(units)
	for i := 0; i < decimals; i++ {
		rat.Quo(rat, ratTen)
	}
	return Amount{rat: rat}
}

// Units converts back to the smallest ledger unit, truncating any fraction
// below one unit.
func (a Amount) Units(decimals int) *big.Int {
	rat := new(big.Rat).Set(a.value())
	for i := 0; i < decimals; i++ {
		rat.Mul(rat, ratTen)
	}
	return new(big.Int).Quo(rat.Num(), rat.Denom())
}

func (a Amount) value() *big.Rat {
	if a.rat == nil {
		return new(big.Rat)
	}
	return a.rat
}

func (a Amount) Add(b Amount) Amount {
	return Amount{rat: new(big.Rat).Add(a.value(), b.value())}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{rat: new(big.Rat).Sub(a.value(), b.value())}
}

func (a Amount) Cmp(b Amount) int {
	return a.value().Cmp(b.value())
}

func (a Amount) Sign() int {
	return a.value().Sign()
}

func (a Amount) IsZero() bool {
	return a.value().Sign() == 0
}

func (a Amount) Equal(b Amount) bool {
	return a.Cmp(b) == 0
}

// String renders the exact decimal expansion without trailing zeros.
// Amounts only ever originate from decimal strings or integer units, so the
// denominator is always a power of ten.
func (a Amount) String() string {
	rat := a.value()
	if rat.IsInt() {
		return rat.Num().String()
	}
	// Find the smallest power of ten the denominator divides.
	denom := rat.Denom()
	scale := 0
	pow := big.NewInt(1)
	ten := big.NewInt(10)
	mod := new(big.Int)
	for scale < 256 {
		if mod.Mod(pow, denom).Sign() == 0 {
			break
		}
		pow.Mul(pow, ten)
		scale++
	}
	if mod.Mod(pow, denom).Sign() != 0 {
		// Not a decimal-representable rational; fall back to big.Rat's form.
		return rat.RatString()
	}
	out := rat.FloatString(scale)
	out = strings.TrimRight(out, "0")
	out = strings.TrimSuffix(out, ".")
	if out == "" || out == "-" {
		return "0"
	}
	return out
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value / Scan let Amount ride in a text column when persisted.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *Amount) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*a = ZeroAmount()
		return nil
	case string:
		parsed, err := ParseAmount(v)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case []byte:
		parsed, err := ParseAmount(string(v))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Amount", value)
	}
}
