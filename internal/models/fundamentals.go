package models

import (
	"strconv"
	"strings"
)

// Fundamentals is the fixed set of fields extracted for a ticker.
// A nil field means the provider did not supply it.
type Fundamentals struct {
	Symbol           string   `json:"symbol"`
	CurrentPrice     *float64 `json:"current_price"`
	MarketCap        *float64 `json:"market_cap"`
	FiftyTwoWeekHigh *float64 `json:"52_week_high"`
	FiftyTwoWeekLow  *float64 `json:"52_week_low"`
	PERatio          *float64 `json:"pe_ratio"`
}

// String renders the record as a key-value dict, e.g.
// {'symbol': 'AAPL', 'current_price': 150.0, 'market_cap': None, ...}.
func (f Fundamentals) String() string {
	var sb strings.Builder
	sb.WriteString("{'symbol': '")
	sb.WriteString(f.Symbol)
	sb.WriteString("'")
	for _, kv := range []struct {
		key string
		val *float64
	}{
		{"current_price", f.CurrentPrice},
		{"market_cap", f.MarketCap},
		{"52_week_high", f.FiftyTwoWeekHigh},
		{"52_week_low", f.FiftyTwoWeekLow},
		{"pe_ratio", f.PERatio},
	} {
		sb.WriteString(", '")
		sb.WriteString(kv.key)
		sb.WriteString("': ")
		sb.WriteString(formatNumber(kv.val))
	}
	sb.WriteString("}")
	return sb.String()
}

// Empty reports whether the provider returned none of the numeric fields.
func (f Fundamentals) Empty() bool {
	return f.CurrentPrice == nil && f.MarketCap == nil &&
		f.FiftyTwoWeekHigh == nil && f.FiftyTwoWeekLow == nil && f.PERatio == nil
}

func formatNumber(v *float64) string {
	if v == nil {
		return "None"
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Float is a small helper for building records in code and tests.
func Float(v float64) *float64 { return &v }
