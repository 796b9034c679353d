// Package encoding maps dates, integers, booleans and containers to index
// terms. Dates and integers are fixed width so that lexicographic order
// matches numeric order and range queries reduce to string ranges.
package encoding

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "20060102"

// Sentinels bounding the date and integer term spaces.
const (
	DateMin = "00000000"
	DateMax = "99999999"
)

// Sentinels bounding the integer term space.
var (
	IntMin = Int(math.MinInt64)
	IntMax = Int(math.MaxInt64)
)

// Location term prefixes.
const (
	PrefixBookmark = "bm:"
	PrefixBin      = "bin:"
)

// Date encodes t at day resolution in UTC.
func Date(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// ParseDate decodes a day-resolution date term.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date term %q: %w", s, err)
	}
	return t, nil
}

// DaysAgo returns the date term of now minus n days.
func DaysAgo(now time.Time, n int64) string {
	return Date(now.AddDate(0, 0, -int(n)))
}

// Int encodes v as a 20-digit term. The sign bit is flipped so negative
// values sort before positive ones.
func Int(v int64) string {
	return fmt.Sprintf("%020d", uint64(v)^(1<<63))
}

// ParseInt decodes an integer term.
func ParseInt(s string) (int64, error) {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse int term %q: %w", s, err)
	}
	return int64(u ^ (1 << 63)), nil
}

// Bool encodes b as "true" or "false".
func Bool(b bool) string {
	return strconv.FormatBool(b)
}

// BookmarkTerm is the location term of a bookmark.
func BookmarkTerm(id int64) string {
	return PrefixBookmark + strconv.FormatInt(id, 10)
}

// BinTerm is the location term of a news bin.
func BinTerm(id int64) string {
	return PrefixBin + strconv.FormatInt(id, 10)
}

// IsBinTerm reports whether term names a news bin.
func IsBinTerm(term string) bool {
	return strings.HasPrefix(term, PrefixBin)
}
