package domain

import "strings"

// TravelMode identifies the transport mode the portal attributes to a tap,
// derived from the icon it renders next to the line item.
type TravelMode string

const (
	ModeBus       TravelMode = "bus"
	ModeTrain     TravelMode = "train"
	ModeFerry     TravelMode = "ferry"
	ModeMetro     TravelMode = "metro"
	ModeLightRail TravelMode = "light-rail"
	ModeUnknown   TravelMode = "unknown"
)

// modesByIcon maps the icon sprite fragment the portal uses to the mode it
// depicts. The table is keyed by the last path segment of the icon href with
// any leading '#' stripped.
var modesByIcon = map[string]TravelMode{
	"icon-bus":        ModeBus,
	"icon-train":      ModeTrain,
	"icon-ferry":      ModeFerry,
	"icon-metro":      ModeMetro,
	"icon-lightrail":  ModeLightRail,
	"icon-light-rail": ModeLightRail,
}

// ModeFromIcon resolves a travel mode from an icon href such as
// "/sprites.svg#icon-ferry". An empty href yields the empty mode (no icon);
// an unrecognised one yields ModeUnknown.
func ModeFromIcon(href string) TravelMode {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	fragment := href
	if i := strings.LastIndex(fragment, "/"); i >= 0 {
		fragment = fragment[i+1:]
	}

	fragment = strings.TrimPrefix(fragment, "#")
	if i := strings.Index(fragment, "#"); i >= 0 {
		fragment = fragment[i+1:]
	}

	if mode, ok := modesByIcon[strings.ToLower(fragment)]; ok {
		return mode
	}

	return ModeUnknown
}
