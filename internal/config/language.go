package config

import "strings"

// CJK language names and codes, matched against the lowercased target string.
var cjkLanguages = map[string]bool{
	"chinese":  true,
	"japanese": true,
	"korean":   true,
	"zho":      true,
	"jpn":      true,
	"kor":      true,
	"chi":      true,
	"zh":       true,
	"ja":       true,
	"ko":       true,
}

// IsCJK returns true if the target language is Chinese, Japanese, or Korean.
// It accepts both language names ("Japanese", "Traditional Chinese") and
// ISO codes ("ja", "jpn").
func IsCJK(language string) bool {
	lang := strings.ToLower(strings.TrimSpace(language))
	if cjkLanguages[lang] {
		return true
	}
	for _, word := range strings.Fields(lang) {
		if cjkLanguages[word] {
			return true
		}
	}
	return false
}

// CPSForLang returns the target reading speed in characters per second.
func CPSForLang(language string) int {
	if IsCJK(language) {
		return 11
	}
	return 15
}

// CPLForLang returns the characters-per-line limit for subtitle text.
func CPLForLang(language string) int {
	if IsCJK(language) {
		return 25
	}
	return 42
}
