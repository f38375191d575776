package nlp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/planit/backend/domain"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var weekdayPattern = regexp.MustCompile(`\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)

// Layouts tried, in order, once the keyword forms are exhausted.
var dateLayouts = []string{
	domain.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// Layouts without a year; the reference year is assumed.
var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
	"01/02",
	"1/2",
}

var ordinalSuffix = regexp.MustCompile(`(\d)(?:st|nd|rd|th)\b`)

var timePattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*([ap]\.?m\.?)?$`)

// ResolveDate turns a fuzzy date phrase into a YYYY-MM-DD string relative to now.
// Weekday names resolve to the next occurrence strictly after today.
func ResolveDate(phrase string, now time.Time) (string, bool) {
	p := strings.ToLower(strings.TrimSpace(phrase))
	p = strings.TrimSuffix(p, ".")
	if p == "" {
		return "", false
	}

	switch p {
	case "today", "tonight":
		return now.Format(domain.DateLayout), true
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(domain.DateLayout), true
	}

	if m := weekdayPattern.FindStringSubmatch(p); m != nil {
		return nextWeekday(now, weekdays[m[1]]).Format(domain.DateLayout), true
	}

	raw := strings.TrimSpace(phrase)
	titled := cases.Title(language.English).String(ordinalSuffix.ReplaceAllString(p, "$1"))
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return t.Format(domain.DateLayout), true
		}
		if t, err := time.ParseInLocation(layout, titled, now.Location()); err == nil {
			return t.Format(domain.DateLayout), true
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.ParseInLocation(layout, titled, now.Location()); err == nil {
			return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()).Format(domain.DateLayout), true
		}
	}
	return "", false
}

// nextWeekday returns the first day after now falling on target; never now itself.
func nextWeekday(now time.Time, target time.Weekday) time.Time {
	ahead := (int(target) - int(now.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return now.AddDate(0, 0, ahead)
}

// ResolveTime normalizes "9:00am", "14:30", "7 pm" to a zero-padded 24h HH:MM.
// Anything else yields the empty string.
func ResolveTime(phrase string) string {
	m := timePattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(phrase)))
	if m == nil {
		return ""
	}
	meridiem := strings.ReplaceAll(m[3], ".", "")
	if m[2] == "" && meridiem == "" {
		return ""
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return ""
	}
	minute := 0
	if m[2] != "" {
		if minute, err = strconv.Atoi(m[2]); err != nil || minute > 59 {
			return ""
		}
	}

	switch meridiem {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return ""
		}
		hour %= 12
		if meridiem == "pm" {
			hour += 12
		}
	default:
		if hour > 23 {
			return ""
		}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// AddHour shifts an HH:MM value by one hour, wrapping 23 to 0.
func AddHour(hhmm string) string {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%02d:%s", (hour+1)%24, parts[1])
}
