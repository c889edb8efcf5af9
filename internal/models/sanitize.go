package models

import (
	"crypto/rand"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	memberIDRegex = regexp.MustCompile(`^[A-Z0-9]{8}$`)
	htmlTagRegex  = regexp.MustCompile(`<[^>]*>`)
	cleanRegex    = regexp.MustCompile(`[^\p{L}\p{N}\s.,:_@\-]`)

	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// CleanText strips HTML tags and anything outside letters/digits/basic
// punctuation, trims, and caps the length at max runes. Free-text inputs go
// through this before they touch the document.
func CleanText(s string, max int) string {
	s = htmlTagRegex.ReplaceAllString(s, "")
	s = cleanRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > max {
		runes := []rune(s)
		s = string(runes[:max])
	}
	return s
}

// NormalizeMemberID uppercases and trims a raw member id and reports whether
// the result is a valid 8-char alphanumeric token. No other coercion happens.
func NormalizeMemberID(raw string) (string, bool) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	return v, memberIDRegex.MatchString(v)
}

// NewID returns a fresh random identifier of n alphanumeric characters, used
// for sheet and slot ids.
func NewID(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failing means the process is unusable
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf)
}
