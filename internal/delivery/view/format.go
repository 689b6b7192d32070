// Package view turns screen results into display rows shared by the
// HTML page, the JSON API and the websocket channel.
package view

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const TimestampLayout = "2006-01-02 15:04:05"

// exactExponent is small enough that NewFromFloatWithExponent keeps every
// binary digit of a float64.
const exactExponent = -1074

// fixed rounds the exact binary value of v half-to-even at places decimals.
func fixed(v float64, places int32) string {
	return decimal.NewFromFloatWithExponent(v, exactExponent).RoundBank(places).StringFixed(places)
}

// FormatUSD renders v as a whole-dollar amount with thousands separators, e.g. "$1,234,567".
// Halves round to even: 1500.5 renders as "$1,500".
func FormatUSD(v float64) string {
	s := fixed(v, 0)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	return sign + "$" + groupThousands(s)
}

// FormatRatio renders a percentage with two decimals, e.g. "150.00%".
func FormatRatio(v float64) string {
	return fixed(v, 2) + "%"
}

// FormatTimestamp renders the "last updated" footer time.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var b strings.Builder
	b.Grow(n + n/3)
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
