// Package portal implements the extraction engine for the Opal card
// self-service portal: session establishment, account and period discovery,
// per-period ledger extraction with running-balance reconstruction, and
// date-range filtering. All portal interaction goes through the narrow
// browser.Capability so the engine is testable against a fake.
package portal

const (
	loginURL           = "https://www.opal.com.au/login"
	dashboardURLPrefix = "https://www.opal.com.au/en/my-opal"

	// The login form is hoisted out of the portal's bootstrap iframe once the
	// page hydrates, so waiting on the input covers both placements.
	usernameSelector   = "#login-form input[name='h_username']"
	passwordSelector   = "#login-form input[name='h_password']"
	submitSelector     = "#login-form button[type='submit']"
	loginErrorSelector = "#login-form .login-error"

	cardTileSelector    = ".card-carousel .card-tile"
	cardNameSelector    = ".card-title"
	cardBalanceSelector = ".card-summary .card-balance"

	periodControlSelector = "select#transaction-month"
	periodOptionSelector  = "select#transaction-month option"

	activityFetchFragment = "/api/users/cards/transactions"

	activityListSelector = ".transaction-list"
	dayBlockSelector     = ".transaction-list .transaction-day"
	dayHeaderSelector    = ".day-header"
	lineItemSelector     = ".transaction-item"
	itemTimeSelector     = ".item-time"
	itemSummarySelector  = ".item-summary"
	itemAmountSelector   = ".item-amount"
	itemIconSelector     = ".item-mode-icon use"
	itemTapOnSelector    = ".item-tap-on"
	itemTapOffSelector   = ".item-tap-off"
)
