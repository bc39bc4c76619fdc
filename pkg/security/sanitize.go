package security

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	htmlCommentPattern = regexp.MustCompile(`<!--[\s\S]*?-->`)
	htmlTagPattern     = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
)

// SanitizeString trims the input and drops NUL and control characters other than newline and tab
func SanitizeString(input string) string {
	return strings.TrimSpace(removeControlCharacters(input))
}

func removeControlCharacters(input string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
}

// StripHTMLTags removes markup, keeping the text between tags
func StripHTMLTags(input string) string {
	input = htmlCommentPattern.ReplaceAllString(input, "")
	return htmlTagPattern.ReplaceAllString(input, "")
}

// NormalizeWhitespace collapses every whitespace run into a single space
func NormalizeWhitespace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

// TruncateString cuts input to at most maxLength bytes without splitting a rune
func TruncateString(input string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if len(input) <= maxLength {
		return input
	}
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(input[cut]) {
		cut--
	}
	return input[:cut]
}

// SanitizeEmail trims and lowercases an address
func SanitizeEmail(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// SanitizeText cleans free text such as a gift message, keeping line breaks
func SanitizeText(input string, maxLength int) string {
	return TruncateString(strings.TrimSpace(StripHTMLTags(SanitizeString(input))), maxLength)
}

// SanitizeName cleans a single line value such as a recipient name
func SanitizeName(input string, maxLength int) string {
	return TruncateString(NormalizeWhitespace(StripHTMLTags(SanitizeString(input))), maxLength)
}
