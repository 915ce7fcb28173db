// Package model contains the domain records passed between pipeline stages.
package model

import "strings"

// Position is the coarse positional bucket priors are estimated for.
type Position string

// Recognized positions.
const (
	Guard   Position = "Guard"
	Forward Position = "Forward"
	Center  Position = "Center"
)

// League labels priors pooled across all positions. It is never produced by
// MapPosition and is not Valid.
const League Position = "League"

// Positions lists the recognized positions in reporting order.
var Positions = []Position{Guard, Forward, Center}

// MapPosition buckets a raw roster position code.
//
// Checks run in order: any "G" is a Guard, the bare code "C" is a Center,
// any "F" is a Forward. "G-F" is therefore a Guard and "F-C" a Forward.
// Codes that match none of the checks are unmappable.
func MapPosition(raw string) (Position, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case code == "":
		return "", false
	case strings.Contains(code, "G"):
		return Guard, true
	case code == "C":
		return Center, true
	case strings.Contains(code, "F"):
		return Forward, true
	default:
		return "", false
	}
}

// ParsePosition resolves a canonical position name ("Guard", "forward", ...).
// Used for tables whose positions were already bucketed upstream.
func ParsePosition(name string) (Position, bool) {
	n := strings.TrimSpace(name)
	for _, p := range Positions {
		if strings.EqualFold(n, string(p)) {
			return p, true
		}
	}
	return "", false
}

// Valid reports whether p is exactly one of the recognized positions.
func (p Position) Valid() bool {
	for _, known := range Positions {
		if p == known {
			return true
		}
	}
	return false
}

func (p Position) String() string { return string(p) }
