package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinSearchLength is the minimum number of non-blank characters in a search term.
const MinSearchLength = 2

// minWordMatchLength is the shortest search word considered by StreetMatches'
// word-level fallback.
const minWordMatchLength = 3

// ValidateSearchTerm trims term and rejects it when shorter than MinSearchLength.
func ValidateSearchTerm(term string) (string, error) {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return "", NewInvalidInputError("search term is empty")
	}
	if utf8.RuneCountInString(trimmed) < MinSearchLength {
		return "", NewInvalidInputError("search term must contain at least 2 characters")
	}
	return trimmed, nil
}

// NormalizeHebrew strips niqqud and cantillation marks, turns hyphens
// (including the Hebrew maqaf) into spaces, lowercases and collapses whitespace.
func NormalizeHebrew(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		s,
	)

	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Pd, r) {
			return ' '
		}
		return r
	}, s)

	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeCity normalizes a city name so that spelling noise such as
// "קריית-גת" vs "קריית גת" or "ג'לג'וליה" vs "ג׳לג׳וליה" compares equal.
func NormalizeCity(city string) string {
	city = strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', '`', '׳', '״', '’':
			return -1
		}
		return r
	}, city)
	return NormalizeHebrew(city)
}

// CitiesEqual reports whether two city names normalize identically.
func CitiesEqual(a, b string) bool {
	return NormalizeCity(a) == NormalizeCity(b)
}

// CleanStreetName reduces a provider street string such as "הרצל 12, תל אביב"
// to the bare street name: everything after the first comma and all digits
// are dropped.
func CleanStreetName(raw string) string {
	if i := strings.IndexRune(raw, ','); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, raw)
	return strings.Join(strings.Fields(raw), " ")
}

// StreetMatches is a tolerant, order-insensitive match of a street name
// against a user search term. It accepts a normalized substring match, or
// any search word longer than two characters that contains or is contained
// in a word of the street name.
func StreetMatches(street, keyword string) bool {
	s := NormalizeHebrew(street)
	k := NormalizeHebrew(keyword)
	if s == "" || k == "" {
		return false
	}
	if strings.Contains(s, k) {
		return true
	}

	streetWords := strings.Fields(s)
	for _, kw := range strings.Fields(k) {
		if utf8.RuneCountInString(kw) < minWordMatchLength {
			continue
		}
		for _, sw := range streetWords {
			if strings.Contains(sw, kw) || strings.Contains(kw, sw) {
				return true
			}
		}
	}
	return false
}
