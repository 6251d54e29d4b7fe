package format

import (
	"encoding/json"
	"io"

	"github.com/halkwu/opal-card/internal/domain"
)

const FormatTypeJSON FormatType = "json"

func init() {
	register(FormatTypeJSON, func(w io.Writer) Formatter {
		return &JSONFormatter{w: w, entries: make([]domain.LedgerEntry, 0)}
	})
}

// JSONFormatter buffers entries and emits a single indented JSON array on
// Flush. An empty run still produces "[]", never "null".
type JSONFormatter struct {
	w       io.Writer
	entries []domain.LedgerEntry
}

func (f *JSONFormatter) WriteHeader() error {
	return nil
}

func (f *JSONFormatter) WriteEntry(entry *domain.LedgerEntry) error {
	f.entries = append(f.entries, *entry)

	return nil
}

func (f *JSONFormatter) Flush() error {
	encoder := json.NewEncoder(f.w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(f.entries)
}
