package dataset

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// NullTime is a timestamp that may be missing.
type NullTime struct {
	Time  time.Time
	Valid bool
}

func (n NullTime) key() string {
	if !n.Valid {
		return ""
	}
	return n.Time.Format(time.RFC3339Nano)
}

// ParseReview parses a last_review cell. Empty cells are null and count as
// parsed; ok is false only for non-empty text no layout matches. Times are
// converted to UTC and truncated to microseconds so the written form
// round-trips.
func ParseReview(s string) (nt NullTime, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "nat") {
		return NullTime{}, true
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return NullTime{}, false
	}
	return NullTime{Time: t.UTC().Truncate(time.Microsecond), Valid: true}, true
}

const (
	layoutDate   = "2006-01-02"
	layoutSecond = "2006-01-02 15:04:05"
	layoutMicro  = "2006-01-02 15:04:05.000000"
)

// reviewLayout picks the shortest layout that loses nothing for any value in
// the column: a bare date when every value is at midnight, seconds when none
// carries a fraction, microseconds otherwise.
func reviewLayout(rows []Row) string {
	layout := layoutDate
	for _, r := range rows {
		if !r.LastReview.Valid {
			continue
		}
		t := r.LastReview.Time
		if t.Nanosecond() != 0 {
			return layoutMicro
		}
		if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 {
			layout = layoutSecond
		}
	}
	return layout
}
