package market

import (
	"fmt"
	"strings"
	"time"
)

// IST is the NSE market time zone. A fixed offset avoids depending on the
// host's tzdata.
var IST = time.FixedZone("IST", 5*3600+1800)

const expiryLayout = "02-Jan-2006"

// IsTradingWindow reports whether t falls inside NSE regular trading
// hours: Monday-Friday, 09:15-15:30 IST, boundaries inclusive.
func IsTradingWindow(t time.Time) bool {
	ist := t.In(IST)

	switch ist.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minutes := ist.Hour()*60 + ist.Minute()
	return minutes >= 9*60+15 && minutes <= 15*60+30
}

// TradingDate returns the calendar date of t in market time, truncated to
// midnight IST. Used as the baseline key.
func TradingDate(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}

// ParseExpiry parses an NSE expiry label (e.g. "26-Sep-2026").
func ParseExpiry(label string) (time.Time, error) {
	d, err := time.ParseInLocation(expiryLayout, strings.TrimSpace(label), IST)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing expiry label %q: %w", label, err)
	}
	return d, nil
}

// ChooseExpiry picks the nearest expiry on or after date from a list of
// labels. When every parsed expiry is in the past it falls back to the
// latest one; labels that do not parse are ignored. Returns "" only when
// nothing parses at all.
func ChooseExpiry(labels []string, date time.Time) string {
	day := TradingDate(date)

	var (
		bestFuture      time.Time
		bestFutureLabel string
		lastKnown       time.Time
		lastKnownLabel  string
	)

	for _, label := range labels {
		d, err := ParseExpiry(label)
		if err != nil {
			continue
		}
		if lastKnownLabel == "" || d.After(lastKnown) {
			lastKnown = d
			lastKnownLabel = label
		}
		if d.Before(day) {
			continue
		}
		if bestFutureLabel == "" || d.Before(bestFuture) {
			bestFuture = d
			bestFutureLabel = label
		}
	}

	if bestFutureLabel != "" {
		return bestFutureLabel
	}
	return lastKnownLabel
}

// Calendar resolves the current expiry label from a configured table.
type Calendar struct {
	labels []string
}

// NewCalendar builds a calendar from a comma-separated label list. An
// empty string yields an empty calendar; the caller then resolves the
// expiry from the fetched document instead.
func NewCalendar(commaSeparated string) *Calendar {
	var labels []string
	for _, label := range strings.Split(commaSeparated, ",") {
		label = strings.TrimSpace(label)
		if label != "" {
			labels = append(labels, label)
		}
	}
	return &Calendar{labels: labels}
}

// Empty reports whether the calendar has no configured labels.
func (c *Calendar) Empty() bool { return len(c.labels) == 0 }

// CurrentExpiry maps a date to its expiry label, never failing: past-table
// dates fall back to the last known label.
func (c *Calendar) CurrentExpiry(date time.Time) string {
	return ChooseExpiry(c.labels, date)
}
