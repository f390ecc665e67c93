package cost

import (
	"math"

	"github.com/shopspring/decimal"
)

const Unknown = "unknown"

var cent = decimal.New(1, -2)

// FormatHourly renders an hourly estimate, e.g. "$0.19 per hour".
func FormatHourly(v float64) string { return format(v, "per hour") }

// FormatMonthly renders a monthly estimate, e.g. "$2.00 per month".
func FormatMonthly(v float64) string { return format(v, "per month") }

func format(v float64, unit string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return Unknown
	}
	d := decimal.NewFromFloat(v)
	if d.IsPositive() && d.LessThan(cent) {
		return "< $0.01 " + unit
	}
	return "$" + d.StringFixed(2) + " " + unit
}

// Sum adds estimates; a single unknown makes the total unknown.
func Sum(vals ...float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total
}
