package agent

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"Monday, January 2, 2006",
}

var timeLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

// Resolve combines the suggested date and time in loc. It reports false
// when either part is missing or unparseable.
func (d DateSuggestion) Resolve(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	date, ok := parseWithLayouts(strings.TrimSpace(d.Date), dateLayouts)
	if !ok {
		return time.Time{}, false
	}
	clock, ok := parseWithLayouts(strings.ToUpper(strings.TrimSpace(d.Time)), timeLayouts)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), true
}

func parseWithLayouts(value string, layouts []string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
