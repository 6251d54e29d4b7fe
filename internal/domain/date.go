package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CalendarDate is a timezone-free calendar day. All comparisons between
// entries and window bounds happen on this representation, never on a
// re-derivation from a UTC timestamp, so an entry's inclusion in a window is
// stable regardless of the caller's own timezone.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

var inputDatePattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)

// ParseCalendarDate parses a caller-supplied date in month-day-year order,
// slash or hyphen separated, e.g. "3/7/2025" or "03-07-2025".
func ParseCalendarDate(s string) (CalendarDate, error) {
	matches := inputDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return CalendarDate{}, fmt.Errorf("date %q must be in M-D-YYYY or M/D/YYYY format", s)
	}

	month, _ := strconv.Atoi(matches[1])
	day, _ := strconv.Atoi(matches[2])
	year, _ := strconv.Atoi(matches[3])

	if month < 1 || month > 12 {
		return CalendarDate{}, fmt.Errorf("date %q has invalid month %d", s, month)
	}

	d := CalendarDate{Year: year, Month: time.Month(month), Day: day}
	if day < 1 || day > daysIn(d.Month, year) {
		return CalendarDate{}, fmt.Errorf("date %q has invalid day %d", s, day)
	}

	return d, nil
}

// DateOf truncates t to a calendar day in t's own location.
func DateOf(t time.Time) CalendarDate {
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Today returns the current calendar day in the portal timezone.
func Today(now time.Time) CalendarDate {
	return DateOf(now.In(Timezone()))
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// String renders the date in the portal's MM-DD-YYYY convention.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%02d-%02d-%04d", int(d.Month), d.Day, d.Year)
}

func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *CalendarDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseCalendarDate(s)
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// Compare returns -1, 0, or +1 by chronological order.
func (d CalendarDate) Compare(other CalendarDate) int {
	if d.Year != other.Year {
		return compareInt(d.Year, other.Year)
	}

	if d.Month != other.Month {
		return compareInt(int(d.Month), int(other.Month))
	}

	return compareInt(d.Day, other.Day)
}

func (d CalendarDate) Before(other CalendarDate) bool {
	return d.Compare(other) < 0
}

func (d CalendarDate) After(other CalendarDate) bool {
	return d.Compare(other) > 0
}

// At combines the calendar date with a clock time in the portal timezone.
func (d CalendarDate) At(hour, minute int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, Timezone())
}

// AddDays returns the date shifted by the given number of days.
func (d CalendarDate) AddDays(days int) CalendarDate {
	return DateOf(time.Date(d.Year, d.Month, d.Day+days, 0, 0, 0, 0, time.UTC))
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// monthsByName maps lower-cased month names, full and abbreviated, to their
// index. Kept as an explicit table rather than string matching scattered
// through the period parser.
var monthsByName = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// MonthFromName resolves a case-insensitive month name or abbreviation.
func MonthFromName(name string) (time.Month, bool) {
	m, ok := monthsByName[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}
