package deck

import (
	"fmt"
	"strings"
)

// Kind is the narrative role of a slide. It also selects the slide's layout.
type Kind string

// Kind values. The set is closed; ParseKind rejects anything else.
const (
	KindTitle         Kind = "TITLE"
	KindProblem       Kind = "PROBLEM"
	KindSolution      Kind = "SOLUTION"
	KindMarket        Kind = "MARKET"
	KindProduct       Kind = "PRODUCT"
	KindBusinessModel Kind = "BUSINESS_MODEL"
	KindCompetition   Kind = "COMPETITION"
	KindTeam          Kind = "TEAM"
	KindTraction      Kind = "TRACTION"
	KindVision        Kind = "VISION"
)

// Kinds lists every slide kind in canonical order.
var Kinds = []Kind{
	KindTitle,
	KindProblem,
	KindSolution,
	KindMarket,
	KindProduct,
	KindBusinessModel,
	KindCompetition,
	KindTeam,
	KindTraction,
	KindVision,
}

// KindNames returns the string form of every kind, for schema enums.
func KindNames() []string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return names
}

// ParseKind converts a wire value into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown slide kind %q", s)
	}
	return k, nil
}

// Valid reports whether k belongs to the closed enumeration.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Label is the human-readable form shown on slides, e.g. "BUSINESS MODEL".
func (k Kind) Label() string {
	return strings.ReplaceAll(string(k), "_", " ")
}

// Glyph is a single-character marker standing in for the kind's icon.
func (k Kind) Glyph() string {
	switch k {
	case KindProblem:
		return "⚠"
	case KindSolution:
		return "✔"
	case KindMarket:
		return "↗"
	case KindTeam:
		return "☺"
	case KindCompetition:
		return "◎"
	case KindVision:
		return "➚"
	case KindBusinessModel:
		return "$"
	case KindProduct:
		return "▤"
	default:
		return "⚡"
	}
}
