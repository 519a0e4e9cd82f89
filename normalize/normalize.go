// Package normalize folds accented letters to their base letters.
package normalize

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Letters left over after stripping marks that still are not base Latin,
// e.g. ł, ø, ß, æ. × and ÷ sit in the same block and are kept.
var latinLetters = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00c0, Hi: 0x00d6, Stride: 1},
		{Lo: 0x00d8, Hi: 0x00f6, Stride: 1},
		{Lo: 0x00f8, Hi: 0x017f, Stride: 1},
	},
	LatinOffset: 2,
}

// String folds s to base Latin letters: combining marks are removed and
// stroked letters and ligatures are transliterated. Case and non-letters
// are kept.
func String(s string) string {
	if s == "" {
		return s
	}
	result, _, err := transform.String(stripMarks, s)
	if err != nil {
		result = s
	}
	if strings.IndexFunc(result, isFoldable) < 0 {
		return result
	}
	var sb strings.Builder
	sb.Grow(len(result))
	for _, r := range result {
		if isFoldable(r) {
			sb.WriteString(unidecode.Unidecode(string(r)))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isFoldable(r rune) bool {
	return unicode.Is(latinLetters, r)
}

// FirstRune returns the normalized first character of s, or "" for an empty
// string. It is the grouping key of a word.
func FirstRune(s string) string {
	for _, r := range s {
		return String(string(r))
	}
	return ""
}
