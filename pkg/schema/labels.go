package schema

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var splitWordsPattern = regexp.MustCompile(`[_\-\s]+`)

// DefaultTitler turns a field name such as "product_type" or "pressureLevel"
// into a display title ("Product Type", "Pressure Level"). It is used when a
// raw record carries no label.
func DefaultTitler(name string) string {
	if name == "" {
		return ""
	}

	words := splitWordsPattern.Split(name, -1)
	var segments []string
	for _, word := range words {
		if word == "" {
			continue
		}
		segments = append(segments, capitalize(splitCamel(word)))
	}
	return strings.TrimSpace(strings.Join(segments, " "))
}

func splitCamel(input string) string {
	var out strings.Builder
	for i, r := range input {
		if i > 0 && isBoundary(input, i, r) {
			out.WriteRune(' ')
		}
		out.WriteRune(r)
	}
	return out.String()
}

func isBoundary(input string, index int, r rune) bool {
	prev, _ := utf8.DecodeLastRuneInString(input[:index])
	return unicode.IsLower(prev) && unicode.IsUpper(r)
}

// capitalize upper-cases the first rune of every word and lower-cases the rest.
func capitalize(phrase string) string {
	parts := strings.Fields(phrase)
	for i, word := range parts {
		lower := strings.ToLower(word)
		first, size := utf8.DecodeRuneInString(lower)
		parts[i] = string(unicode.ToUpper(first)) + lower[size:]
	}
	return strings.Join(parts, " ")
}
