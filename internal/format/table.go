package format

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/halkwu/opal-card/internal/domain"
)

const FormatTypeTable FormatType = "table"

func init() {
	register(FormatTypeTable, func(w io.Writer) Formatter {
		return &TableFormatter{writer: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
	})
}

// TableFormatter renders an aligned plain-text table for terminal output.
type TableFormatter struct {
	writer *tabwriter.Writer
}

func (f *TableFormatter) WriteHeader() error {
	_, err := fmt.Fprintln(f.writer, "DATE\tTIME\tCARD\tMODE\tDESCRIPTION\tAMOUNT\tBALANCE")

	return err
}

func (f *TableFormatter) WriteEntry(entry *domain.LedgerEntry) error {
	balance := "-"
	if entry.ImpliedBalance != nil {
		balance = *entry.ImpliedBalance
	}

	description := entry.Description
	if entry.TapOn != "" {
		description = entry.TapOn
		if entry.TapOff != "" {
			description += " -> " + entry.TapOff
		}
	}

	_, err := fmt.Fprintf(f.writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		entry.CalendarDate,
		entry.LocalTimestamp.Format(time.Kitchen),
		entry.AccountID,
		entry.Mode,
		description,
		entry.Amount.String(),
		balance,
	)

	return err
}

func (f *TableFormatter) Flush() error {
	return f.writer.Flush()
}
