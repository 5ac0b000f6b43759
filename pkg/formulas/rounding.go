package formulas

import "github.com/shopspring/decimal"

// Round rounds v to the given number of decimal places, half away from zero.
// Non-finite input rounds to 0.
func Round(v float64, places int32) float64 {
	v = Finite(v)
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundUnits rounds a quantity to whole units.
func RoundUnits(v float64) float64 {
	return Round(v, 0)
}

// RoundMoney rounds a monetary amount to cents.
func RoundMoney(v float64) float64 {
	return Round(v, 2)
}

// SumMoney adds monetary amounts without accumulating float drift and rounds
// the total to cents.
func SumMoney(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(Finite(v)))
	}
	return total.Round(2).InexactFloat64()
}
