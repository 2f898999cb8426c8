package domain

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Range is an inclusive time window used to scope fetches, queries and stats
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ParseRange parses the from/to bounds of a request. Bounds may be plain dates
// (YYYY-MM-DD) or RFC3339 timestamps; a plain-date upper bound covers that whole day.
func ParseRange(from, to string) (Range, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" {
		return Range{}, NewValidationError("fromDate and toDate are required")
	}

	start, _, err := parseBound(from)
	if err != nil {
		return Range{}, NewValidationError("invalid fromDate %q", from)
	}
	end, dateOnly, err := parseBound(to)
	if err != nil {
		return Range{}, NewValidationError("invalid toDate %q", to)
	}
	if dateOnly {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	if end.Before(start) {
		return Range{}, NewValidationError("fromDate %s is after toDate %s", from, to)
	}

	return Range{From: start, To: end}, nil
}

func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, false, err
}

// Contains reports whether t falls inside the range, bounds included
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// FromParam formats the lower bound the way the upstream expects it
func (r Range) FromParam() string {
	return r.From.Format(dateLayout)
}

// ToParam formats the upper bound the way the upstream expects it
func (r Range) ToParam() string {
	return r.To.Format(dateLayout)
}
