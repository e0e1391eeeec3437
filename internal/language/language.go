// Package language provides language detection and translation for the
// two languages the service supports, English and Japanese.
package language

import (
	"fmt"
	"strings"
	"unicode"
)

// Language identifies one of the supported languages.
type Language string

const (
	// EN is English.
	EN Language = "en"
	// JA is Japanese.
	JA Language = "ja"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == EN || l == JA
}

// Parse converts a wire value ("en", "ja", case-insensitive) to a Language.
func Parse(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case EN:
		return EN, nil
	case JA:
		return JA, nil
	default:
		return "", fmt.Errorf("unsupported language %q (supported: en, ja)", s)
	}
}

// japaneseRanges covers Hiragana, Katakana and the CJK unified ideographs.
var japaneseRanges = []*unicode.RangeTable{
	unicode.Hiragana,
	unicode.Katakana,
	unicode.Han,
}

// Detect classifies text as Japanese or English.
//
// A single rune in the Japanese script ranges decisively signals JA; short
// queries are adversarial to statistical detectors, so the character-range
// rule takes precedence. Everything else, including empty input, falls back
// to EN. Detect never fails.
func Detect(text string) Language {
	for _, r := range text {
		if unicode.In(r, japaneseRanges...) {
			return JA
		}
	}
	return EN
}
