package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"whitespace trim", "  hello world  ", "hello world"},
		{"null bytes removed", "hello\x00world", "helloworld"},
		{"preserves newlines", "hello\nworld", "hello\nworld"},
		{"preserves tabs", "hello\tworld", "hello\tworld"},
		{"removes control chars", "hello\x01\x02\x03world", "helloworld"},
		{"unicode preserved", "hello 世界", "hello 世界"},
		{"mixed content", "  hello\x00\x01world  ", "helloworld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeString(tt.input))
		})
	}
}

func TestRemoveControlCharacters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no control chars", "hello world", "hello world"},
		{"with bell", "hello\aworld", "helloworld"},
		{"with carriage return", "hello\rworld", "helloworld"},
		{"multiple control chars", "\x00\x01\x02hello\x03\x04", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, removeControlCharacters(tt.input))
		})
	}
}

func TestStripHTMLTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no tags", "hello world", "hello world"},
		{"nested tags", "<div><p>hello</p></div>", "hello"},
		{"self-closing tags", "<br/>hello<hr/>", "hello"},
		{"with attributes", "<a href='url'>link</a>", "link"},
		{"script tag", "<script>alert(1)</script>", "alert(1)"},
		{"comment", "<!-- comment -->hello", "hello"},
		{"uppercase tags", "<DIV>hello</DIV>", "hello"},
		{"comparison kept", "1 < 2 > 0", "1 < 2 > 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripHTMLTags(tt.input))
		})
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "", NormalizeWhitespace("     "))
	assert.Equal(t, "hello world foo", NormalizeWhitespace("  hello  \t world  \n foo  "))
	assert.Equal(t, "hello world", NormalizeWhitespace("hello\r\nworld"))
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		expected  string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"longer than max", "hello world", 5, "hello"},
		{"zero max length", "hello", 0, ""},
		{"does not split runes", "héllo", 2, "h"},
		{"very long string", strings.Repeat("a", 1000), 100, strings.Repeat("a", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateString(tt.input, tt.maxLength))
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "friend@example.com", SanitizeEmail("  Friend@Example.COM "))
}

func TestSanitizeText_KeepsLineBreaks(t *testing.T) {
	got := SanitizeText("  <b>Happy</b> birthday!\nLove,\x00 Sam  ", 1000)

	assert.Equal(t, "Happy birthday!\nLove, Sam", got)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Jane Doe", SanitizeName(" <i>Jane</i>\n  Doe ", 255))
	assert.Equal(t, "Jane", SanitizeName("Jane Doe", 4))
}
