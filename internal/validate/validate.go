// Package validate holds the pure input checks run before any credential
// store is contacted.
package validate

import (
	"regexp"
	"strings"
)

// MinUsernameLen is the shortest accepted username.
const MinUsernameLen = 3

// maxEmailLen caps addresses at the RFC 5321 path limit.
const maxEmailLen = 254

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// specials is the closed set of special characters recognized by the
// password rules. They are permitted, not required.
const specials = "@$!%*?&"

// Strength buckets for PasswordStrength.
type Strength int

const (
	Weak Strength = iota
	Medium
	Strong
)

// String returns the lowercase bucket name.
func (s Strength) String() string {
	switch s {
	case Medium:
		return "medium"
	case Strong:
		return "strong"
	default:
		return "weak"
	}
}

// Email reports whether s looks like local@domain.tld and is not longer
// than 254 characters. No deliverability check is made.
func Email(s string) bool {
	return len(s) <= maxEmailLen && emailRe.MatchString(s)
}

// Username reports whether s is an acceptable username.
func Username(s string) bool {
	return len(strings.TrimSpace(s)) >= MinUsernameLen
}

// Password reports whether s is at least 8 characters and contains an
// uppercase letter, a lowercase letter, and a digit. Only ASCII letters,
// digits, and the closed special set are allowed.
func Password(s string) bool {
	if len(s) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specials, r):
		default:
			return false
		}
	}
	return upper && lower && digit
}

// PasswordStrength scores s on six independent criteria and buckets the
// result: 0-2 weak, 3-4 medium, 5-6 strong.
func PasswordStrength(s string) Strength {
	score := 0
	if len(s) >= 8 {
		score++
	}
	if len(s) >= 12 {
		score++
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		score++
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		score++
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) {
		score++
	}
	if strings.ContainsAny(s, specials) {
		score++
	}

	switch {
	case score <= 2:
		return Weak
	case score <= 4:
		return Medium
	default:
		return Strong
	}
}
