package common

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders v as "$1,234.568", with a leading "-" for negatives.
// Rounding goes through decimal so half-way values round away from zero.
// NaN and infinities render as "-".
func FormatMoney(v float64) string {
	if !finite(v) {
		return "-"
	}
	d := decimal.NewFromFloat(v)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(3)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "$" + groupThousands(whole) + "." + frac
}

// FormatPercent renders v with three decimals and a percent sign.
func FormatPercent(v float64) string {
	if !finite(v) {
		return "-"
	}
	return fmt.Sprintf("%s%%", decimal.NewFromFloat(v).StringFixed(3))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
