// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chem cleans up chemical names and validates CAS registry numbers.
// Implements: prd001-normalization (R1-R4);
//
//	docs/ARCHITECTURE § Normalization.
package chem

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/autochemlab/pkg/types"
)

// DefaultFootnoteRunes are the characters treated as footnote markers when
// they trail a name (R2.2). Digits cover the superscript-digit case (NFKC
// folds superscripts to plain digits first); the rest are the usual
// dagger-style reference marks.
const DefaultFootnoteRunes = "0123456789*†‡§"

// Normalizer cleans raw chemical names into lookup keys. Normalization is
// pure and total: any input yields a best-effort cleaned string, and
// re-normalizing an already-normalized name is a no-op (R1.2, R1.3).
type Normalizer struct {
	footnoteRunes  string
	restoreLocants bool
}

// NewNormalizer builds a Normalizer from config. An empty FootnoteRunes
// falls back to DefaultFootnoteRunes.
func NewNormalizer(cfg types.NormalizeConfig) *Normalizer {
	runes := cfg.FootnoteRunes
	if runes == "" {
		runes = DefaultFootnoteRunes
	}
	return &Normalizer{
		footnoteRunes:  runes,
		restoreLocants: cfg.RestoreLocants,
	}
}

// Normalize cleans a raw chemical name (R2.1-R2.4): Unicode compatibility
// fold, whitespace cleanup, trailing footnote-marker removal, and optional
// locant restoration for names recovered from PDF field names. Chemical
// punctuation already present (hyphens, commas, parentheses, primes) passes
// through untouched.
func (n *Normalizer) Normalize(raw string) string {
	s := foldText(raw)
	s = collapseSpace(s)
	// An input that is already a CAS number is already normalized; the
	// footnote and locant passes would shred its digit groups.
	if ValidCASRN(s) {
		return s
	}
	s = n.stripFootnotes(s)
	if n.restoreLocants {
		s = RestoreLocants(s)
	}
	return s
}

// foldText applies Unicode NFKC so compatibility forms from PDF strings
// (ligatures, full-width characters) compare equal, and drops control runes.
func foldText(s string) string {
	s = norm.NFKC.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// collapseSpace trims the ends and collapses internal whitespace runs to a
// single space (R2.1).
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripFootnotes removes trailing footnote markers (R2.2). The strip is
// abandoned when it would leave nothing, or leave the name ending in a
// hyphen or comma: a digit after a hyphen is isotope or congener notation
// ("carbon-14", "PCB-77"), not a footnote.
func (n *Normalizer) stripFootnotes(s string) string {
	trimmed := strings.TrimRight(s, n.footnoteRunes)
	if trimmed == s {
		return s
	}
	trimmed = strings.TrimRight(trimmed, " ")
	if trimmed == "" {
		return s
	}
	last, _ := utf8.DecodeLastRuneInString(trimmed)
	if last == '-' || last == ',' {
		return s
	}
	return trimmed
}

// Locant boundary patterns. PDF form-field names drop the punctuation that
// separates locant prefixes from the stem ("112trichloroethane",
// "2 propanol"), so the boundaries are reinserted here.
var (
	digitLetterPattern = regexp.MustCompile(`(\d)([a-zA-Z])|([a-zA-Z])(\d)`)
	digitSpacePattern  = regexp.MustCompile(`(\d) ([a-zA-Z])`)
	hexSplitPattern    = regexp.MustCompile(`([a-zA-Z]) (hex+)`)
)

// RestoreLocants reinserts the commas and hyphens that field-name mangling
// strips from locant prefixes (R3.1-R3.4): "112trichloroethane" becomes
// "1,1,2-trichloroethane" and "2 propanol" becomes "2-propanol". Names that
// already carry their punctuation come back unchanged. The trailing rules
// fold the lab-bottle plural "hexanes" to "hexane" and rejoin split "hex"
// fragments.
func RestoreLocants(s string) string {
	s = commaJoinDigitRuns(s)
	s = digitLetterPattern.ReplaceAllString(s, "${1}${3}-${2}${4}")
	s = digitSpacePattern.ReplaceAllString(s, "${1}-${2}")
	s = hexSplitPattern.ReplaceAllString(s, "${1}${2}")
	for strings.Contains(s, "hexanes") {
		s = strings.Replace(s, "hexanes", "hexane", 1)
	}
	return s
}

// commaJoinDigitRuns rewrites each run of two or more digits as a
// comma-separated locant set ("112" → "1,1,2"). Runs adjacent to a hyphen
// or decimal point are left alone so isotope labels and embedded numbers
// survive.
func commaJoinDigitRuns(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) * 2)

	for i := 0; i < len(runes); {
		if !isASCIIDigit(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}

		j := i
		for j < len(runes) && isASCIIDigit(runes[j]) {
			j++
		}

		punctBefore := i > 0 && (runes[i-1] == '-' || runes[i-1] == '.')
		punctAfter := j < len(runes) && runes[j] == '.'
		if j-i >= 2 && !punctBefore && !punctAfter {
			for k := i; k < j; k++ {
				if k > i {
					b.WriteRune(',')
				}
				b.WriteRune(runes[k])
			}
		} else {
			b.WriteString(string(runes[i:j]))
		}
		i = j
	}
	return b.String()
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// locantPrefixPattern matches a leading locant group like "1,1,2-".
var locantPrefixPattern = regexp.MustCompile(`^[\d,]+-`)

// StripLocantPrefix removes a leading locant group (R4.1). The registry
// indexes some chemicals without their locants, so this produces the
// fallback variant tried after a failed lookup: "1,1,2-trichloroethane"
// becomes "trichloroethane". Names without a prefix come back unchanged.
func StripLocantPrefix(s string) string {
	return locantPrefixPattern.ReplaceAllString(s, "")
}
