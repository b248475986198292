package models

import (
	"fmt"
	"strings"
)

// Platform is the ride-hailing platform a driver works on.
type Platform string

const (
	PlatformOla        Platform = "ola"
	PlatformUber       Platform = "uber"
	PlatformRapido     Platform = "rapido"
	PlatformNammaYatri Platform = "namma_yatri"
)

// Platforms lists every accepted platform in display order.
var Platforms = []Platform{PlatformOla, PlatformUber, PlatformRapido, PlatformNammaYatri}

// ParsePlatform accepts a platform name in any letter case.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown platform %q", s)
	}
	return p, nil
}

func (p Platform) Valid() bool {
	switch p {
	case PlatformOla, PlatformUber, PlatformRapido, PlatformNammaYatri:
		return true
	}
	return false
}

func (p Platform) String() string { return string(p) }

// Label is the human readable name.
func (p Platform) Label() string {
	switch p {
	case PlatformOla:
		return "Ola"
	case PlatformUber:
		return "Uber"
	case PlatformRapido:
		return "Rapido"
	case PlatformNammaYatri:
		return "Namma Yatri"
	}
	return string(p)
}

// NormalizeVehicleNumber is the canonical form used for storage and lookup.
func NormalizeVehicleNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
