package service

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^0-9a-zA-Z]+`)

// Normalize canonicalizes a free-text name for comparison: HTML character
// entities are decoded, accented letters folded to their base Latin letter,
// every run of non-alphanumeric characters collapsed to a single dash, the
// whole lowercased and trimmed of leading/trailing dashes and spaces.
//
//	Normalize("François")    == "francois"
//	Normalize("Jean-Pierre") == "jean-pierre"
//	Normalize("O'Brien")     == "o-brien"
//
// Normalize is idempotent.
func Normalize(s string) string {
	s = html.UnescapeString(s)

	// NFD decomposition followed by removal of combining marks folds the
	// acute/grave/circumflex/diaeresis/cedilla/tilde/ring families.
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(folder, s); err == nil {
		s = folded
	}

	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.ToLower(s)
	return strings.Trim(s, "- ")
}
