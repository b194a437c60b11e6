// Package money implements exact arithmetic over decimal-string amounts.
//
// Monetary values travel through the application as decimal strings
// ("123.45") and are never converted to binary floating point, including in
// intermediate aggregation steps. All arithmetic runs on
// github.com/shopspring/decimal, which keeps an integer coefficient and a
// scale, so "0.1" + "0.2" is exactly "0.3".
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Zero is the canonical zero amount.
const Zero = "0"

// Parse validates and parses a decimal-string amount.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// Add returns a + b as a decimal string.
func Add(a, b string) (string, error) {
	da, err := Parse(a)
	if err != nil {
		return "", err
	}
	db, err := Parse(b)
	if err != nil {
		return "", err
	}
	return da.Add(db).String(), nil
}

// AddInt returns a + delta for an integer delta. Deltas are often literal
// integers at call sites; routing them through NewFromInt keeps them off the
// float64 path.
func AddInt(a string, delta int64) (string, error) {
	da, err := Parse(a)
	if err != nil {
		return "", err
	}
	return da.Add(decimal.NewFromInt(delta)).String(), nil
}

// Sub returns a - b as a decimal string.
func Sub(a, b string) (string, error) {
	da, err := Parse(a)
	if err != nil {
		return "", err
	}
	db, err := Parse(b)
	if err != nil {
		return "", err
	}
	return da.Sub(db).String(), nil
}

// SubInt returns a - delta for an integer delta.
func SubInt(a string, delta int64) (string, error) {
	return AddInt(a, -delta)
}

// Neg returns -a as a decimal string.
func Neg(a string) (string, error) {
	da, err := Parse(a)
	if err != nil {
		return "", err
	}
	return da.Neg().String(), nil
}

// Cmp compares two amounts: -1 if a < b, 0 if equal, 1 if a > b.
func Cmp(a, b string) (int, error) {
	da, err := Parse(a)
	if err != nil {
		return 0, err
	}
	db, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return da.Cmp(db), nil
}

// Sum adds any number of amounts.
func Sum(amounts ...string) (string, error) {
	total := decimal.Zero
	for _, a := range amounts {
		d, err := Parse(a)
		if err != nil {
			return "", err
		}
		total = total.Add(d)
	}
	return total.String(), nil
}

// IsPositive reports whether the amount parses and is strictly greater than zero.
func IsPositive(a string) bool {
	d, err := decimal.NewFromString(a)
	if err != nil {
		return false
	}
	return d.IsPositive()
}

// Percentage returns part/whole*100 rounded to two decimals, or 0 when whole
// is not strictly positive. The division happens in decimal space; only the
// final rounded display value is a float.
func Percentage(part, whole string) (float64, error) {
	dp, err := Parse(part)
	if err != nil {
		return 0, err
	}
	dw, err := Parse(whole)
	if err != nil {
		return 0, err
	}
	if !dw.IsPositive() {
		return 0, nil
	}
	return dp.Div(dw).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64(), nil
}

// Equal reports whether two amounts are numerically equal ("1.50" equals "1.5").
func Equal(a, b string) (bool, error) {
	c, err := Cmp(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}
