package domain

import (
	"github.com/shopspring/decimal"
)

// displayPlaces is the number of decimals shown in tables.
const displayPlaces = 2

var million = decimal.NewFromInt(1_000_000)

// Amount is a display value rounded to two decimals. It marshals as a bare
// JSON number with exactly two decimals, e.g. 1.50.
type Amount struct {
	d decimal.Decimal
}

// Millions converts a raw mass quantity to millions of units, rounded for display.
func Millions(raw float64) Amount {
	return Amount{d: decimal.NewFromFloat(raw).Div(million).Round(displayPlaces)}
}

// Rounded rounds a raw value for display without unit conversion.
func Rounded(raw float64) Amount {
	return Amount{d: decimal.NewFromFloat(raw).Round(displayPlaces)}
}

// Float64 returns the displayed value. Use it for presentation only.
func (a Amount) Float64() float64 {
	return a.d.InexactFloat64()
}

func (a Amount) String() string {
	return a.d.StringFixed(displayPlaces)
}

// Equal reports whether two amounts display the same value.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return err
	}
	a.d = d.Round(displayPlaces)
	return nil
}
