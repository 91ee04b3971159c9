// Package text holds rune-aware helpers for user-visible strings: channel
// and video titles are frequently Japanese or contain emoji, so lengths are
// counted in runes, never bytes.
package text

import "unicode/utf8"

// CountRunes counts the number of Unicode characters (runes) in the given text.
//
//	CountRunes("hello")      // 5
//	CountRunes("こんにちは")  // 5
//	CountRunes("Hello👋")    // 6
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}

// Truncate shortens text to at most maxRunes runes. When text is cut the
// result ends with suffix, which counts towards maxRunes.
func Truncate(text string, maxRunes int, suffix string) string {
	if CountRunes(text) <= maxRunes {
		return text
	}
	keep := max(maxRunes-CountRunes(suffix), 0)
	runes := []rune(text)
	return string(runes[:keep]) + suffix
}
