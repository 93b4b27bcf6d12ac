package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeString trims a single-line value and escapes HTML.
func SanitizeString(input string) string {
	return html.EscapeString(strings.TrimSpace(input))
}

// SanitizeText is SanitizeString for free text; control characters other than
// line breaks and tabs are dropped.
func SanitizeText(input string) string {
	escaped := SanitizeString(input)
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		return -1
	}, escaped)
}

// SanitizeEmail lowercases an address and strips markup.
func SanitizeEmail(email string) string {
	email = tagPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(email)), "")
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return r
		}
		return -1
	}, email)
}

// SanitizePhone keeps digits and the usual separators.
func SanitizePhone(phone string) string {
	phone = tagPattern.ReplaceAllString(strings.TrimSpace(phone), "")
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsDigit(r), r == '+', r == '-', r == ' ', r == '(', r == ')':
			return r
		}
		return -1
	}, phone)
}
