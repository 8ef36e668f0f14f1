// Package world provides the ground-truth resource grid and the biome field
// that shapes how it is generated and how it drifts over time.
package world

// Kind enumerates what a grid cell can contain.
// The set is closed; NumKinds sizes every belief vector.
type Kind uint8

const (
	KindNone  Kind = iota // Empty ground
	KindFood              // Eaten to reduce hunger
	KindWater             // Drunk to reduce thirst
	KindStone             // Inert
	KindGhost             // Repels agents
)

// NumKinds is the total number of resource kinds.
const NumKinds = 5

// Kinds lists every kind in ordinal order.
var Kinds = [NumKinds]Kind{KindNone, KindFood, KindWater, KindStone, KindGhost}

// String returns a stable lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindFood:
		return "food"
	case KindWater:
		return "water"
	case KindStone:
		return "stone"
	case KindGhost:
		return "ghost"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k < NumKinds
}

// MarshalText encodes the kind by name, so kind slices serialize as names
// rather than base64 bytes.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
