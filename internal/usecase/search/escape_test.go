package search

import "testing"

func TestHasUnescapedWildcard(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"plain", false},
		{"go*", true},
		{"fo?o", true},
		{`go\*`, false},
		{`a\?b`, false},
		{`a\\*`, true},
		{"", false},
	}
	for _, tt := range tests {
		if got := hasUnescapedWildcard(tt.in); got != tt.want {
			t.Errorf("hasUnescapedWildcard(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUnescapeAndEscape(t *testing.T) {
	if got := unescape(`a\*b\\c\?`); got != `a*b\c?` {
		t.Errorf("unescape = %q", got)
	}
	if got := escapeWildcard(`a*b\c?`); got != `a\*b\\c\?` {
		t.Errorf("escapeWildcard = %q", got)
	}
	if got := unescape(escapeWildcard("x*y?z")); got != "x*y?z" {
		t.Errorf("round trip = %q", got)
	}
}

func TestPrefixStem(t *testing.T) {
	tests := []struct {
		in     string
		stem   string
		prefix bool
	}{
		{"gener*", "gener", true},
		{"gener", "", false},
		{`gener\*`, "", false},
		{`gener\\*`, `gener\`, true},
		{"ge*ner*", "", false},
		{"ge?n*", "", false},
	}
	for _, tt := range tests {
		stem, ok := prefixStem(tt.in)
		if ok != tt.prefix || stem != tt.stem {
			t.Errorf("prefixStem(%q) = %q, %v; want %q, %v", tt.in, stem, ok, tt.stem, tt.prefix)
		}
	}
}
