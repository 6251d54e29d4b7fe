package portal

import (
	"github.com/halkwu/opal-card/internal/domain"
	"github.com/halkwu/opal-card/internal/util/sliceutil"
)

// FilterByWindow selects entries whose recorded calendar date falls inside
// the inclusive window. Pure; comparison never re-derives the date from the
// UTC timestamp, so inclusion is stable across caller timezones.
func FilterByWindow(entries []domain.LedgerEntry, window domain.ScrapeWindow) []domain.LedgerEntry {
	if window.Start == nil && window.End == nil {
		return entries
	}

	return sliceutil.Filter(entries, func(entry domain.LedgerEntry) bool {
		if window.Start != nil && entry.CalendarDate.Before(*window.Start) {
			return false
		}

		if window.End != nil && entry.CalendarDate.After(*window.End) {
			return false
		}

		return true
	})
}
