package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/halkwu/opal-card/internal/domain"
)

func TestMoneyString(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		money    domain.Money
		expected string
	}{
		"positive":         {money: domain.Money{MinorUnit: 10050, Currency: "AUD"}, expected: "100.50"},
		"negative":         {money: domain.Money{MinorUnit: -480, Currency: "AUD"}, expected: "-4.80"},
		"zero":             {money: domain.Money{MinorUnit: 0, Currency: "AUD"}, expected: "0.00"},
		"invalid currency": {money: domain.Money{MinorUnit: 100, Currency: "NOPE"}, expected: "invalid currency: 100 (NOPE)"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, test.expected, test.money.String())
		})
	}
}

func TestPeriodBefore(t *testing.T) {
	t.Parallel()

	older := domain.Period{Month: time.December, Year: 2024}
	newer := domain.Period{Month: time.January, Year: 2025}

	require.True(t, older.Before(newer))
	require.False(t, newer.Before(older))
	require.False(t, older.Before(older))
}

func TestModeFromIcon(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		href     string
		expected domain.TravelMode
	}{
		"bus":              {href: "/assets/sprites.svg#icon-bus", expected: domain.ModeBus},
		"train":            {href: "#icon-train", expected: domain.ModeTrain},
		"ferry":            {href: "/sprites.svg#icon-ferry", expected: domain.ModeFerry},
		"metro":            {href: "#icon-metro", expected: domain.ModeMetro},
		"light rail":       {href: "#icon-lightrail", expected: domain.ModeLightRail},
		"unrecognised":     {href: "#icon-jetpack", expected: domain.ModeUnknown},
		"no icon at all":   {href: "", expected: domain.TravelMode("")},
		"case insensitive": {href: "#ICON-BUS", expected: domain.ModeBus},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, test.expected, domain.ModeFromIcon(test.href))
		})
	}
}
