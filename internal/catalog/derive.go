package catalog

import "math"

// MinEffectiveSpeed is the floor on a node's effective crafting speed.
// A module stack can drive the combined speed factor to zero or below;
// the floor keeps machine-count math finite.
const MinEffectiveSpeed = 0.1

// CryogenicCategory is the recipe category whose nodes default to a
// 2.0 speed multiplier instead of 1.0.
const CryogenicCategory = "cryogenic"

// DefaultSpeedMultiplier returns the manual speed multiplier a freshly
// placed node starts with for the given recipe category.
func DefaultSpeedMultiplier(category string) float64 {
	if category == CryogenicCategory {
		return 2.0
	}
	return 1.0
}

// TotalSpeedBonus sums the speed bonuses of the installed modules.
// Nil entries are empty slots.
func TotalSpeedBonus(modules []*Module) float64 {
	var total float64
	for _, m := range modules {
		if m != nil {
			total += m.SpeedBonus
		}
	}
	return total
}

// TotalProductivityBonus sums the productivity bonuses of the
// installed modules. May be negative.
func TotalProductivityBonus(modules []*Module) float64 {
	var total float64
	for _, m := range modules {
		if m != nil {
			total += m.ProductivityBonus
		}
	}
	return total
}

// TotalEfficiencyBonus sums the efficiency bonuses of the installed
// modules. May be negative.
func TotalEfficiencyBonus(modules []*Module) float64 {
	var total float64
	for _, m := range modules {
		if m != nil {
			total += m.EfficiencyBonus
		}
	}
	return total
}

// EffectiveSpeed derives a node's actual crafting speed from its
// selected tier, installed modules, and manual multiplier.
//
// The floor applies to the final product, not any intermediate factor:
// a -100% module stack on a 0.5-speed tier yields 0.1, not 0.05.
func EffectiveSpeed(tier MachineTier, modules []*Module, speedMultiplier float64) float64 {
	return math.Max(MinEffectiveSpeed, tier.Speed*(1+TotalSpeedBonus(modules))*speedMultiplier)
}

// CanUseModule reports whether installing the module on a node running
// the recipe is legal.
//
// Productivity modules need at least one output on the intermediate
// allow-list. Quality modules are illegal when any output is a fluid.
// Speed and efficiency modules are always legal.
//
// This gate is advisory: it prevents new installs but never strips a
// module that is already in a slot.
func (c *Catalog) CanUseModule(m Module, r Recipe) bool {
	switch m.Type {
	case ModuleProductivity:
		for _, out := range r.Outputs {
			if c.intermediates[out.Item] {
				return true
			}
		}
		return false
	case ModuleQuality:
		for _, out := range r.Outputs {
			if c.fluids[out.Item] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// CraftsPerMin converts a target rate (primary-output items per minute)
// into crafts per minute, accounting for productivity bonuses.
// Returns 0 when the recipe has no usable primary output.
func CraftsPerMin(targetPerMin float64, r Recipe, modules []*Module) float64 {
	primary, ok := r.PrimaryOutput()
	if !ok || primary.Qty <= 0 {
		return 0
	}
	perCraft := primary.Qty * (1 + TotalProductivityBonus(modules))
	if perCraft <= 0 {
		return 0
	}
	return targetPerMin / perCraft
}

// MachineCount derives how many machines a node needs to hit its
// target rate. Display quantity only - the solver never reads it.
func MachineCount(targetPerMin float64, r Recipe, tier MachineTier, modules []*Module, speedMultiplier float64) float64 {
	crafts := CraftsPerMin(targetPerMin, r, modules)
	speed := EffectiveSpeed(tier, modules, speedMultiplier)
	return crafts * r.Time / 60 / speed
}
