package format

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/halkwu/opal-card/internal/domain"
)

const FormatTypeCSV FormatType = "csv"

func init() {
	register(FormatTypeCSV, func(w io.Writer) Formatter {
		return &CSVFormatter{writer: csv.NewWriter(w)}
	})
}

// CSVFormatter writes one row per entry with local timestamps.
type CSVFormatter struct {
	writer *csv.Writer
}

func (f *CSVFormatter) WriteHeader() error {
	return f.writer.Write([]string{
		"date", "time", "account", "mode", "description",
		"from", "to", "amount", "balance", "status",
	})
}

func (f *CSVFormatter) WriteEntry(entry *domain.LedgerEntry) error {
	balance := ""
	if entry.ImpliedBalance != nil {
		balance = *entry.ImpliedBalance
	}

	return f.writer.Write([]string{
		entry.CalendarDate.String(),
		entry.LocalTimestamp.Format(time.Kitchen),
		entry.AccountID,
		string(entry.Mode),
		entry.Description,
		entry.TapOn,
		entry.TapOff,
		entry.Amount.String(),
		balance,
		string(entry.Status),
	})
}

func (f *CSVFormatter) Flush() error {
	f.writer.Flush()

	return f.writer.Error()
}
