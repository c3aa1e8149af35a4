package game

import "fmt"

// Mode is the bot's behavioural mode. Exactly one is active at a time.
type Mode int

const (
	ModePatrol Mode = iota
	ModeChase
	ModeAttack
	ModeBreakOff
	ModeEvade
)

// Modes lists every mode in declaration order
var Modes = []Mode{ModePatrol, ModeChase, ModeAttack, ModeBreakOff, ModeEvade}

func (m Mode) String() string {
	switch m {
	case ModePatrol:
		return "patrol"
	case ModeChase:
		return "chase"
	case ModeAttack:
		return "attack"
	case ModeBreakOff:
		return "breakoff"
	case ModeEvade:
		return "evade"
	default:
		return "unknown"
	}
}

// MarshalText lets modes appear by name in JSON telemetry.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a mode name.
func (m *Mode) UnmarshalText(b []byte) error {
	for _, candidate := range Modes {
		if candidate.String() == string(b) {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", string(b))
}
