package model

import "strings"

// Zone is a court shooting zone.
type Zone string

// Recognized zones. Anything else the shot source reports (for example
// "Backcourt") is excluded from estimation.
const (
	RestrictedArea Zone = "Restricted Area"
	Paint          Zone = "In The Paint (Non-RA)"
	MidRange       Zone = "Mid-Range"
	LeftCorner3    Zone = "Left Corner 3"
	RightCorner3   Zone = "Right Corner 3"
	AboveBreak3    Zone = "Above the Break 3"
)

// Zones lists the recognized zones in court order.
var Zones = []Zone{RestrictedArea, Paint, MidRange, LeftCorner3, RightCorner3, AboveBreak3}

var zoneAliases = map[string]Zone{
	"paint (non-restricted area)": Paint,
	"paint":                       Paint,
	"midrange":                    MidRange,
	"mid range":                   MidRange,
}

// ParseZone resolves a zone label, case-insensitively.
func ParseZone(label string) (Zone, bool) {
	l := strings.TrimSpace(label)
	for _, z := range Zones {
		if strings.EqualFold(l, string(z)) {
			return z, true
		}
	}
	if z, ok := zoneAliases[strings.ToLower(l)]; ok {
		return z, true
	}
	return "", false
}

// Valid reports whether z is exactly one of the recognized zones.
func (z Zone) Valid() bool {
	for _, known := range Zones {
		if z == known {
			return true
		}
	}
	return false
}

// IsThree reports whether shots from z are worth three points.
func (z Zone) IsThree() bool {
	return z == LeftCorner3 || z == RightCorner3 || z == AboveBreak3
}

func (z Zone) String() string { return string(z) }

// Key identifies a (position, zone) pair.
type Key struct {
	Position Position
	Zone     Zone
}

func (k Key) String() string { return string(k.Position) + "/" + string(k.Zone) }
