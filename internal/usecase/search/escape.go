package search

import "strings"

const escapeChar = '\\'

// hasUnescapedWildcard reports whether s holds a * or ? not preceded by a backslash.
func hasUnescapedWildcard(s string) bool {
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == escapeChar:
			escaped = true
		case r == '*' || r == '?':
			return true
		}
	}
	return false
}

// unescape drops backslashes, keeping the character each one protects.
func unescape(s string) string {
	if !strings.ContainsRune(s, escapeChar) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	escaped := false
	for _, r := range s {
		if !escaped && r == escapeChar {
			escaped = true
			continue
		}
		escaped = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// escapeWildcard protects every pattern character of a literal string.
func escapeWildcard(s string) string {
	if !strings.ContainsAny(s, `*?\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for _, r := range s {
		if r == '*' || r == '?' || r == escapeChar {
			sb.WriteRune(escapeChar)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// prefixStem returns the stem of a word ending in an unescaped * whose stem
// carries no other pattern character.
func prefixStem(word string) (string, bool) {
	stem, ok := strings.CutSuffix(word, "*")
	if !ok {
		return "", false
	}
	// An odd run of trailing backslashes escapes the star itself.
	if trailing := len(stem) - len(strings.TrimRight(stem, `\`)); trailing%2 == 1 {
		return "", false
	}
	if hasUnescapedWildcard(stem) {
		return "", false
	}
	return unescape(stem), true
}
