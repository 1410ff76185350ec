package bitmatch

import (
	"strings"

	"github.com/Rhymond/go-money"
)

// Crypto assets are unknown to go-money, they are registered with their
// smallest unit as fraction.
func init() {
	money.AddCurrency("BTC", "₿", "1 $", ".", ",", 8)
	money.AddCurrency("SOL", "◎", "1 $", ".", ",", 9)
}

// Amount is a quantity of a given asset, for display.
type Amount struct {
	value Quantity
	asset string
}

// A creates an Amount.
func A(value Quantity, asset string) Amount { return Amount{value: value, asset: asset} }

func (a Amount) Quantity() Quantity { return a.value }
func (a Amount) Asset() string      { return a.asset }

// String formats the amount using the asset conventions when known. Assets
// whose smallest unit overflows int64, or that go-money does not know, are
// printed as a plain decimal followed by the asset name.
func (a Amount) String() string {
	code := strings.ToUpper(a.asset)
	cur := money.GetCurrency(code)
	if cur == nil || cur.Fraction > 9 {
		return plainAmount(a.value, a.asset)
	}
	shifted := a.value.value.Shift(int32(cur.Fraction))
	if !shifted.Equal(shifted.Truncate(0)) {
		return plainAmount(a.value, a.asset)
	}
	return cur.Formatter().Format(shifted.IntPart())
}

// SignedString returns the string representation with an explicit sign.
// Zero is represented as "-".
func (a Amount) SignedString() string {
	if a.value.IsZero() {
		return "-"
	}
	if a.value.IsPositive() {
		return "+" + a.String()
	}
	return a.String()
}

func plainAmount(q Quantity, asset string) string {
	if asset == "" {
		return q.String()
	}
	return q.String() + " " + asset
}
