package domain

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Rhymond/go-money"
)

// DefaultCurrency is the currency every portal amount is denominated in.
const DefaultCurrency = "AUD"

var tz = sync.OnceValue(func() *time.Location {
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		// The portal calendar is meaningless without its home timezone.
		panic(fmt.Sprintf("load portal timezone: %v", err))
	}

	return loc
})

// Timezone returns the fixed timezone used for all calendar-date
// interpretation, regardless of the caller's or host's locale.
func Timezone() *time.Location {
	return tz()
}

// Money represents a monetary amount in a specific currency, stored in minor units (e.g. cents for AUD).
type Money struct {
	MinorUnit int64  `json:"minorUnits"` // Amount in the currency's smallest unit (e.g. 100 for $1.00 AUD)
	Currency  string `json:"currency"`   // ISO4217 Alpha Currency code (e.g. AUD)
}

// ToMajorUnit converts the Money amount from minor units to major units (e.g., cents to dollars).
// If the currency is invalid or not found, it returns the minor unit as a float64 without conversion.
func (m Money) ToMajorUnit() float64 {
	currency := money.GetCurrency(m.Currency)
	if currency == nil {
		return float64(m.MinorUnit)
	}

	return float64(m.MinorUnit) / math.Pow10(currency.Fraction)
}

// String returns a human-readable representation of the amount in major units
// with the currency's fractional precision.
//
// Example:
//
//	m := Money{MinorUnit: 10050, Currency: "AUD"}
//	fmt.Println(m.String()) // Outputs: "100.50"
func (m Money) String() string {
	currency := money.GetCurrency(m.Currency)
	if currency == nil {
		return fmt.Sprintf("invalid currency: %d (%s)", m.MinorUnit, m.Currency)
	}

	return fmt.Sprintf("%.*f", currency.Fraction, m.ToMajorUnit())
}

// EntryStatus distinguishes settled charges from taps that have not yet been
// priced by the portal.
type EntryStatus string

const (
	StatusPosted  EntryStatus = "posted"
	StatusPending EntryStatus = "pending"
)

// LedgerEntry is a single transit-card transaction reconstructed from the
// portal's activity view. Entries are immutable once constructed and are the
// only values that survive past a single run.
type LedgerEntry struct {
	CalendarDate   CalendarDate `json:"date"`           // portal-local calendar date
	LocalTimestamp time.Time    `json:"localTimestamp"` // tap time in the portal timezone
	UTCTimestamp   time.Time    `json:"utcTimestamp"`
	Amount         Money        `json:"amount"` // negative for a charge, non-negative for a top-up
	AccountID      string       `json:"accountId"`
	Mode           TravelMode   `json:"mode,omitempty"`
	Description    string       `json:"description"`
	TapOn          string       `json:"tapOnLocation,omitempty"`
	TapOff         string       `json:"tapOffLocation,omitempty"`
	Status         EntryStatus  `json:"status"`
	ImpliedBalance *string      `json:"impliedBalance"` // 2dp string, nil when reconstruction is suppressed
}

// AccountCard is one transit-fare account under the authenticated identity.
// Cards are discovered fresh each run and never cached.
type AccountCard struct {
	DisplayName string
	IsBlocked   bool
	Balance     Money // balance displayed at discovery time
	HasBalance  bool  // false when the portal showed no readable balance
}

// Period is a selectable month/year unit of the portal's activity view.
type Period struct {
	Month time.Month
	Year  int
	Token string // option value used to select the period on the control
}

func (p Period) Label() string {
	return fmt.Sprintf("%s %d", p.Month, p.Year)
}

// Before reports whether p is strictly earlier than other by (year, month).
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}

	return p.Month < other.Month
}

// Contains reports whether the given calendar date falls inside this period's month.
func (p Period) Contains(d CalendarDate) bool {
	return d.Year == p.Year && d.Month == p.Month
}

// ScrapeWindow is the caller-specified inclusive date range used to filter
// extracted entries. A nil bound means "unbounded on that side".
type ScrapeWindow struct {
	Start *CalendarDate
	End   *CalendarDate
}

// ProgressEvent is an ephemeral one-way checkpoint emitted during extraction.
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Message string `json:"message,omitempty"`
}
