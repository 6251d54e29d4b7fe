// Package format renders extracted ledger entries for the caller: a JSON
// artifact, CSV, or a human-readable table. Formatters register themselves by
// type; the core never writes presentation output itself.
package format

import (
	"fmt"
	"io"
	"slices"

	"github.com/halkwu/opal-card/internal/domain"
)

type FormatType string

type Formatter interface {
	WriteHeader() error
	WriteEntry(entry *domain.LedgerEntry) error
	Flush() error
}

type constructor func(io.Writer) Formatter

var registry = make(map[FormatType]constructor)

func register(format FormatType, constructor constructor) {
	registry[format] = constructor
}

func NewFormatter(format FormatType, w io.Writer) (Formatter, error) {
	constructor, exists := registry[format]
	if !exists {
		return nil, fmt.Errorf("unsupported format type: %s", format)
	}

	return constructor(w), nil
}

// All returns a sorted slice of all registered format types.
func All() []FormatType {
	formats := make([]FormatType, 0, len(registry))
	for format := range registry {
		formats = append(formats, format)
	}

	slices.Sort(formats)

	return formats
}

// WriteCollection writes the header, every entry, and flushes.
func WriteCollection(formatter Formatter, entries []domain.LedgerEntry) error {
	if err := formatter.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range entries {
		if err := formatter.WriteEntry(&entries[i]); err != nil {
			return fmt.Errorf("write entry: %w", err)
		}
	}

	if err := formatter.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	return nil
}
