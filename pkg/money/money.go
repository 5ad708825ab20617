// Package money holds the decimal arithmetic shared by pricing, carts and orders.
// Every amount is Kwacha with two fractional digits, rounded half away from zero.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits stored for every amount.
const Scale int32 = 2

// Currency is the single implicit currency of the marketplace.
const Currency = "ZMW"

var hundred = decimal.NewFromInt(100)

// Zero is a convenience zero amount.
var Zero = decimal.Zero

// Round normalizes an amount to two fractional digits.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Scale)
}

// Percent returns amount * percent / 100, rounded.
func Percent(amount, percent decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(percent).Div(hundred))
}

// FloorZero clamps negative amounts to zero.
func FloorZero(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// Line returns unit * quantity, rounded.
func Line(unit decimal.Decimal, quantity int) decimal.Decimal {
	return Round(unit.Mul(decimal.NewFromInt(int64(quantity))))
}

// Sum adds the supplied amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return Round(total)
}

// MustParse parses a literal amount and panics on malformed input. Intended for
// constants and tests.
func MustParse(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(fmt.Sprintf("money: invalid amount %q: %v", value, err))
	}
	return d
}

// Format renders an amount for display as "ZMW 1250.00".
func Format(amount decimal.Decimal) string {
	return fmt.Sprintf("%s %s", Currency, String(amount))
}

// String renders an amount with exactly two fractional digits, e.g. "950.00".
func String(amount decimal.Decimal) string {
	return Round(amount).StringFixed(Scale)
}
