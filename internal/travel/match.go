package travel

import (
	"fmt"
	"strings"
)

// MatchMode selects how a search query is compared to a travel's country name.
// Comparison is always case-insensitive.
type MatchMode int

const (
	// MatchPrefix matches countries whose name starts with the query.
	MatchPrefix MatchMode = iota
	// MatchSubstring matches countries whose name contains the query.
	MatchSubstring
)

// ParseMatchMode parses "prefix" or "substring".
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prefix":
		return MatchPrefix, nil
	case "substring":
		return MatchSubstring, nil
	default:
		return 0, fmt.Errorf("unknown match mode %q", s)
	}
}

func (m MatchMode) String() string {
	switch m {
	case MatchPrefix:
		return "prefix"
	case MatchSubstring:
		return "substring"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// Search is a country query bound to a match mode. The cache evaluates it with
// Matches and the store evaluates it with Pattern, so both paths agree.
//
// Case folding covers ASCII letters only: "fra" finds "France", but "é" does
// not find "É". Non-ASCII characters must match exactly.
type Search struct {
	Query string
	Mode  MatchMode
}

// Matches reports whether country satisfies the search.
func (s Search) Matches(country string) bool {
	c := foldASCII(country)
	q := foldASCII(s.Query)
	if s.Mode == MatchSubstring {
		return strings.Contains(c, q)
	}
	return strings.HasPrefix(c, q)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Pattern returns the query, ASCII-folded, as a LIKE pattern using '\' as the
// escape character. Wildcards in the query are matched literally. The store
// must compare it against a country name folded the same way.
func (s Search) Pattern() string {
	q := likeEscaper.Replace(foldASCII(s.Query))
	if s.Mode == MatchSubstring {
		return "%" + q + "%"
	}
	return q + "%"
}

func foldASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
