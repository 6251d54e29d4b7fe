package portal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/halkwu/opal-card/internal/domain"
)

func TestClassifyAmount(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		rawAmount   string
		description string
		expected    int64
	}{
		"top up is a positive credit": {
			rawAmount: "Top up $20.00",
			expected:  2000,
		},
		"trip fare is a negative charge": {
			rawAmount:   "$4.80",
			description: "Trip fare",
			expected:    -480,
		},
		"topup keyword in description": {
			rawAmount:   "$40.00",
			description: "Auto topup",
			expected:    4000,
		},
		"recharge keyword": {
			rawAmount:   "$10.00",
			description: "Recharge at station kiosk",
			expected:    1000,
		},
		"thousands separator": {
			rawAmount:   "$1,234.56",
			description: "Balance adjustment fee",
			expected:    -123456,
		},
		"unparsable amount is zero": {
			rawAmount:   "--",
			description: "Tap on",
			expected:    0,
		},
		"empty amount is zero": {
			rawAmount: "",
			expected:  0,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, test.expected, classifyAmount(test.rawAmount, test.description))
		})
	}
}

func TestParseAmountMagnitude(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input    string
		expected int64
		ok       bool
	}{
		"plain dollars":       {input: "$4.80", expected: 480, ok: true},
		"explicit minus":      {input: "-$4.80", expected: 480, ok: true},
		"explicit plus":       {input: "+$20.00", expected: 2000, ok: true},
		"thousands separator": {input: "$1,050.25", expected: 105025, ok: true},
		"embedded in text":    {input: "Top up $20.00", expected: 2000, ok: true},
		"no number":           {input: "pending", ok: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			magnitude, ok := parseAmountMagnitude(test.input)

			require.Equal(t, test.ok, ok)
			if test.ok {
				require.Equal(t, test.expected, magnitude)
			}
		})
	}
}

func TestParseDayHeader(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		header         string
		expected       domain.CalendarDate
		expectedErrMsg string
	}{
		"weekday day month year": {
			header:   "Wednesday 12 March 2025",
			expected: domain.CalendarDate{Year: 2025, Month: time.March, Day: 12},
		},
		"with comma": {
			header:   "Mon 3 Feb, 2025",
			expected: domain.CalendarDate{Year: 2025, Month: time.February, Day: 3},
		},
		"ordinal day": {
			header:   "Friday 21st June 2024",
			expected: domain.CalendarDate{Year: 2024, Month: time.June, Day: 21},
		},
		"missing year": {
			header:         "Wednesday 12 March",
			expectedErrMsg: "unparseable day header",
		},
		"missing month": {
			header:         "Wednesday 12 2025",
			expectedErrMsg: "unparseable day header",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			date, err := parseDayHeader(test.header)

			if test.expectedErrMsg != "" {
				require.ErrorContains(t, err, test.expectedErrMsg)
				return
			}

			require.NoError(t, err)
			require.Equal(t, test.expected, date)
		})
	}
}

func TestParseClockTime(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input          string
		expectedHour   int
		expectedMinute int
	}{
		"12h pm":       {input: "3:42 pm", expectedHour: 15, expectedMinute: 42},
		"12h am":       {input: "9:05 am", expectedHour: 9, expectedMinute: 5},
		"midnight":     {input: "12:00 am", expectedHour: 0, expectedMinute: 0},
		"noon":         {input: "12:00 pm", expectedHour: 12, expectedMinute: 0},
		"24h":          {input: "15:42", expectedHour: 15, expectedMinute: 42},
		"empty":        {input: "", expectedHour: 0, expectedMinute: 0},
		"garbage":      {input: "soon", expectedHour: 0, expectedMinute: 0},
		"out of range": {input: "25:99", expectedHour: 0, expectedMinute: 0},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			hour, minute := parseClockTime(test.input)

			require.Equal(t, test.expectedHour, hour)
			require.Equal(t, test.expectedMinute, minute)
		})
	}
}

func TestStampRunningBalance(t *testing.T) {
	t.Parallel()

	t.Run("anchors from displayed balance and rolls backward", func(t *testing.T) {
		t.Parallel()

		entries := []domain.LedgerEntry{
			{Amount: domain.Money{MinorUnit: -1000, Currency: "AUD"}},
			{Amount: domain.Money{MinorUnit: -500, Currency: "AUD"}},
		}

		stampRunningBalance(entries, domain.Money{MinorUnit: 10000, Currency: "AUD"})

		require.NotNil(t, entries[0].ImpliedBalance)
		require.Equal(t, "100.00", *entries[0].ImpliedBalance)
		require.NotNil(t, entries[1].ImpliedBalance)
		require.Equal(t, "90.00", *entries[1].ImpliedBalance)
	})

	t.Run("top up rolls the balance up for older entries", func(t *testing.T) {
		t.Parallel()

		entries := []domain.LedgerEntry{
			{Amount: domain.Money{MinorUnit: 2000, Currency: "AUD"}},
			{Amount: domain.Money{MinorUnit: -480, Currency: "AUD"}},
		}

		stampRunningBalance(entries, domain.Money{MinorUnit: 5000, Currency: "AUD"})

		require.Equal(t, "50.00", *entries[0].ImpliedBalance)
		require.Equal(t, "70.00", *entries[1].ImpliedBalance)
	})
}
