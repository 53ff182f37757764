package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveSpeed_FloorAppliesToFinalValue(t *testing.T) {
	tier := MachineTier{ID: "t", Speed: 0.5, ModuleSlots: 2}

	// No modules, multiplier 1.0: plain tier speed.
	assert.InDelta(t, 0.5, EffectiveSpeed(tier, nil, 1.0), 1e-9)

	// A module stack that drives the total speed bonus to exactly -1.0
	// zeroes the product; the floor clamps the final value, not the
	// intermediate factor: max(0.1, 0.5*(1-1.0)*1.0) = 0.1.
	killer := &Module{ID: "drag", Type: ModuleEfficiency, SpeedBonus: -1.0}
	assert.InDelta(t, 0.1, EffectiveSpeed(tier, []*Module{killer, nil}, 1.0), 1e-9)

	// Multiplier of zero also hits the floor.
	assert.InDelta(t, 0.1, EffectiveSpeed(tier, nil, 0), 1e-9)
}

func TestEffectiveSpeed_CombinesBonusAndMultiplier(t *testing.T) {
	tier := MachineTier{ID: "t", Speed: 1.25, ModuleSlots: 4}
	mods := []*Module{
		{ID: "s1", Type: ModuleSpeed, SpeedBonus: 0.2},
		{ID: "s2", Type: ModuleSpeed, SpeedBonus: 0.2},
		nil,
		nil,
	}

	// 1.25 * (1 + 0.4) * 2.0 = 3.5
	assert.InDelta(t, 3.5, EffectiveSpeed(tier, mods, 2.0), 1e-9)
}

func TestDefaultSpeedMultiplier(t *testing.T) {
	assert.Equal(t, 2.0, DefaultSpeedMultiplier("cryogenic"))
	assert.Equal(t, 1.0, DefaultSpeedMultiplier("assembling"))
	assert.Equal(t, 1.0, DefaultSpeedMultiplier(""))
}

func TestBonusTotals_SkipEmptySlotsAndAllowNegatives(t *testing.T) {
	mods := []*Module{
		{ID: "p", Type: ModuleProductivity, SpeedBonus: -0.05, ProductivityBonus: 0.04, EfficiencyBonus: -0.05},
		nil,
		{ID: "e", Type: ModuleEfficiency, EfficiencyBonus: 0.3},
	}

	assert.InDelta(t, -0.05, TotalSpeedBonus(mods), 1e-9)
	assert.InDelta(t, 0.04, TotalProductivityBonus(mods), 1e-9)
	assert.InDelta(t, 0.25, TotalEfficiencyBonus(mods), 1e-9)

	assert.Zero(t, TotalSpeedBonus(nil))
}

func TestCanUseModule_ProductivityNeedsIntermediateOutput(t *testing.T) {
	c := newTestCatalog(t)
	prod := Module{ID: "prod-1", Type: ModuleProductivity}

	gear, _ := c.Recipe("gear")
	belt, _ := c.Recipe("belt")

	assert.True(t, c.CanUseModule(prod, gear), "iron-gear-wheel is an intermediate")
	assert.False(t, c.CanUseModule(prod, belt), "transport-belt is an end product")
}

func TestCanUseModule_QualityIllegalOnFluidOutputs(t *testing.T) {
	c := newTestCatalog(t)
	quality := Module{ID: "quality-1", Type: ModuleQuality}

	refine, _ := c.Recipe("refine")
	gear, _ := c.Recipe("gear")

	assert.False(t, c.CanUseModule(quality, refine), "refinery outputs are fluids")
	assert.True(t, c.CanUseModule(quality, gear))
}

func TestCanUseModule_SpeedAndEfficiencyAlwaysLegal(t *testing.T) {
	c := newTestCatalog(t)
	refine, _ := c.Recipe("refine")

	assert.True(t, c.CanUseModule(Module{ID: "s", Type: ModuleSpeed}, refine))
	assert.True(t, c.CanUseModule(Module{ID: "e", Type: ModuleEfficiency}, refine))
}

func TestCraftsPerMin_AccountsForProductivity(t *testing.T) {
	r := Recipe{
		ID: "r", Time: 1,
		Outputs: []ItemQty{{Item: "widget", Qty: 2}},
	}

	assert.InDelta(t, 30.0, CraftsPerMin(60, r, nil), 1e-9)

	prod := []*Module{{ID: "p", Type: ModuleProductivity, ProductivityBonus: 0.25}}
	// 60 / (2 * 1.25) = 24
	assert.InDelta(t, 24.0, CraftsPerMin(60, r, prod), 1e-9)
}

func TestCraftsPerMin_ZeroForUnusablePrimaryOutput(t *testing.T) {
	noOut := Recipe{ID: "sink", Time: 1}
	assert.Zero(t, CraftsPerMin(60, noOut, nil))

	zeroQty := Recipe{ID: "z", Time: 1, Outputs: []ItemQty{{Item: "x", Qty: 0}}}
	assert.Zero(t, CraftsPerMin(60, zeroQty, nil))
}

func TestMachineCount(t *testing.T) {
	r := Recipe{
		ID: "gear", Time: 0.5,
		Inputs:  []ItemQty{{Item: "iron-plate", Qty: 2}},
		Outputs: []ItemQty{{Item: "iron-gear-wheel", Qty: 1}},
	}
	tier := MachineTier{ID: "assembler-1", Speed: 0.5}

	// 120 gears/min at 1 gear/craft = 120 crafts/min.
	// 120 * 0.5s / 60 / 0.5 speed = 2 machines.
	got := MachineCount(120, r, tier, nil, 1.0)
	require.InDelta(t, 2.0, got, 1e-9)

	// Zero target needs zero machines.
	assert.Zero(t, MachineCount(0, r, tier, nil, 1.0))
}
