package tools

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatCompact renders a USD amount with a K/M/B suffix and one decimal
// ($1.5M, $850.0K); below 1000 it has no suffix and no decimals. Thresholds
// compare the absolute value, a negative amount keeps its minus sign and
// withSign adds "+" to positive ones. Digits come from the float64 value, so
// 1050 renders as 1.1K and 1150 as 1.1K.
func FormatCompact(n decimal.Decimal, withSign bool) string {
	var prefix string
	switch {
	case n.IsNegative():
		prefix = "-"
	case withSign && n.IsPositive():
		prefix = "+"
	}

	abs := n.Abs().InexactFloat64()
	switch {
	case abs >= 1e9:
		return prefix + "$" + strconv.FormatFloat(abs/1e9, 'f', 1, 64) + "B"
	case abs >= 1e6:
		return prefix + "$" + strconv.FormatFloat(abs/1e6, 'f', 1, 64) + "M"
	case abs >= 1e3:
		return prefix + "$" + strconv.FormatFloat(abs/1e3, 'f', 1, 64) + "K"
	default:
		return prefix + "$" + strconv.FormatFloat(abs, 'f', 0, 64)
	}
}

// FormatPrice renders an entry or mark price: thousands grouped without
// decimals from 1000 up, grouped with cents from 1 up, four decimals below.
func FormatPrice(price decimal.Decimal) string {
	f := price.InexactFloat64()
	switch {
	case f >= 1000:
		return "$" + groupFixed(f, 0)
	case f >= 1:
		return "$" + groupFixed(f, 2)
	default:
		return "$" + strconv.FormatFloat(f, 'f', 4, 64)
	}
}

func groupFixed(f float64, places int) string {
	fixed := strconv.FormatFloat(f, 'f', places, 64)
	intPart, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return fixed
	}
	grouped := humanize.Comma(n)
	if frac == "" {
		return grouped
	}
	return grouped + "." + frac
}

// TruncateLabel shortens a label to at most maxLen runes, ending with an ellipsis.
func TruncateLabel(label string, maxLen int) string {
	runes := []rune(label)
	if maxLen <= 0 || len(runes) <= maxLen {
		return label
	}
	return string(runes[:maxLen-1]) + "…"
}
