package tablegen

import "strconv"

// splitNumberAndUnit splits s from the end at the last digit,
// returning the numeric prefix and the trailing unit suffix, ported
// from table-generator.py's Util.splitNumberAndUnit: "the prefix may
// include non-digit characters if they are followed by at least one
// digit" (so "1.23s" -> ("1.23", "s"), "-1" -> ("-1", "")).
func splitNumberAndUnit(s string) (number, unit string) {
	if s == "" {
		return "", ""
	}
	pos := len(s)
	for pos > 0 && !isDigit(s[pos-1]) {
		pos--
	}
	return s[:pos], s[pos:]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// parseNumber parses a value like "1.23s" into 1.23, stripping the
// trailing unit the way toDecimal does. ok is false when there is no
// numeric prefix to parse (e.g. an empty cell or a non-numeric column
// such as "host").
func parseNumber(s string) (value float64, ok bool) {
	number, _ := splitNumberAndUnit(s)
	if number == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
