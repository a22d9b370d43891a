// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chem

import (
	"regexp"
	"strconv"
	"strings"
)

// casrnPattern matches CAS registry numbers: 2-7 digits, 2 digits, then a
// single check digit ("64-17-5", "7732-18-5").
var casrnPattern = regexp.MustCompile(`^(\d{2,7})-(\d{2})-(\d)$`)

// ValidCASRN reports whether s is a well-formed CAS registry number with a
// correct check digit. The check digit is the weighted sum of the other
// digits mod 10, weights counting up from the rightmost digit.
func ValidCASRN(s string) bool {
	m := casrnPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}

	digits := m[1] + m[2]
	sum := 0
	for i := 0; i < len(digits); i++ {
		d := int(digits[len(digits)-1-i] - '0')
		sum += (i + 1) * d
	}
	return sum%10 == int(m[3][0]-'0')
}

// numberPattern matches the first signed decimal in a property string.
var numberPattern = regexp.MustCompile(`[-−]?\d*\.?\d+`)

// ParseNumber extracts the leading numeric value from a free-text property
// string ("78.2 °C" → 78.2, "-114.1 °C" → -114.1). Registry property text
// sometimes uses the Unicode minus sign, which is folded to ASCII before
// parsing. Returns false when the string carries no number.
func ParseNumber(s string) (float64, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	m = strings.Replace(m, "−", "-", 1)
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
