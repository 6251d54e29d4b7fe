package export

import (
	"fmt"

	"github.com/halkwu/opal-card/internal/domain"
)

const (
	tokenEarliest = "earliest"
	tokenLatest   = "latest"
)

// SuggestedFilename names the output artifact after the range it covers:
// the actual min/max entry dates when entries exist, otherwise the requested
// window, with "transactions_all.json" reserved for a fully unbounded request
// that produced nothing to derive a range from.
func SuggestedFilename(entries []domain.LedgerEntry, window domain.ScrapeWindow) string {
	if len(entries) > 0 {
		earliest, latest := entries[0].CalendarDate, entries[0].CalendarDate

		for _, entry := range entries[1:] {
			if entry.CalendarDate.Before(earliest) {
				earliest = entry.CalendarDate
			}
			if entry.CalendarDate.After(latest) {
				latest = entry.CalendarDate
			}
		}

		return fmt.Sprintf("transactions_%s_%s.json", earliest, latest)
	}

	if window.Start == nil && window.End == nil {
		return "transactions_all.json"
	}

	start := tokenEarliest
	if window.Start != nil {
		start = window.Start.String()
	}

	end := tokenLatest
	if window.End != nil {
		end = window.End.String()
	}

	return fmt.Sprintf("transactions_%s_%s.json", start, end)
}
