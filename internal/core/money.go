package core

// money.go parses the currency text found in loan exports.
//
// Exports arrive with symbols ("$", "MXN", "€"), thousands separators and the
// occasional accounting-style negative "(1,200.00)". ParseMoney strips those
// and hands the remainder to pgtype.Numeric, which rejects anything that is
// not a plain decimal.

import (
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// decimalRegex accepts plain decimals only; exponents are rejected because
// pgtype.Numeric's text scan does not support them.
var decimalRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

var currencyReplacer = strings.NewReplacer(
	"$", "",
	"\u20ac", "", // Euro
	"\u00a3", "", // Pound
	"MXN", "",
	"mxn", "",
	"USD", "",
	"usd", "",
	",", "",
	" ", "",
	"\u00a0", "", // non-breaking space
)

// ParseMoney converts currency text to a float.
// Returns false for empty or unparseable input. The result may be negative.
func ParseMoney(s string) (float64, bool) {
	n := ToNumeric(s)
	if !n.Valid {
		return 0, false
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return 0, false
	}
	return f.Float64, true
}

// ToNumeric converts currency text to pgtype.Numeric.
// Returns Valid=false for empty or unparseable input.
func ToNumeric(s string) pgtype.Numeric {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{}
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = currencyReplacer.Replace(s)
	if negative {
		s = "-" + s
	}

	if !decimalRegex.MatchString(s) {
		return pgtype.Numeric{}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{}
	}
	return n
}
