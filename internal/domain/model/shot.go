package model

// ShotEvent is one observed field-goal attempt.
type ShotEvent struct {
	GameID       string // source game identifier, may be empty
	GameEventID  string // event number within the game, may be empty
	PlayerID     string
	PlayerName   string
	PositionCode string // raw roster code, e.g. "G-F"
	Zone         string // raw zone label from the source
	Made         bool
}

// DedupeKey returns the identity used to detect repeated shot rows, or ""
// when the source did not provide one.
func (e ShotEvent) DedupeKey() string {
	if e.GameID == "" || e.GameEventID == "" {
		return ""
	}
	return e.GameID + ":" + e.GameEventID
}

// RosterEntry is one row of roster data.
type RosterEntry struct {
	PlayerID     string
	PlayerName   string
	PositionCode string
}
