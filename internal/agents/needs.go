package agents

import "math"

// Needs tracks hunger and thirst. Both rise by one every tick and only fall
// through consumption.
type Needs struct {
	Hunger uint32 `json:"hunger"`
	Thirst uint32 `json:"thirst"`
}

// NeedLimits bounds survival and sets how much one unit of a resource satisfies.
type NeedLimits struct {
	MaxHunger      uint32 `json:"max_hunger"`
	MaxThirst      uint32 `json:"max_thirst"`
	HungerPerFood  uint32 `json:"hunger_per_food"`
	ThirstPerWater uint32 `json:"thirst_per_water"`
}

// DefaultNeedLimits returns the standard survival bounds.
func DefaultNeedLimits() NeedLimits {
	return NeedLimits{
		MaxHunger:      1000,
		MaxThirst:      500,
		HungerPerFood:  100,
		ThirstPerWater: 100,
	}
}

// Tick advances both counters by one.
func (n *Needs) Tick() {
	if n.Hunger < math.MaxUint32 {
		n.Hunger++
	}
	if n.Thirst < math.MaxUint32 {
		n.Thirst++
	}
}

// Starved reports whether either need has reached its bound.
func (n Needs) Starved(l NeedLimits) bool {
	return n.Hunger >= l.MaxHunger || n.Thirst >= l.MaxThirst
}

// HungerRatio returns hunger as a fraction of its bound.
func (n Needs) HungerRatio(l NeedLimits) float64 {
	if l.MaxHunger == 0 {
		return 0
	}
	return float64(n.Hunger) / float64(l.MaxHunger)
}

// ThirstRatio returns thirst as a fraction of its bound.
func (n Needs) ThirstRatio(l NeedLimits) float64 {
	if l.MaxThirst == 0 {
		return 0
	}
	return float64(n.Thirst) / float64(l.MaxThirst)
}
