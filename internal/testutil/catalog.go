package testutil

import (
	"testing"

	"github.com/beltline/beltline/internal/catalog"
)

// Catalog builds the shared test catalog:
//
//	widget   -> 1 Widget per craft, 1s, no inputs        (assembling)
//	gadget   -> 2 Widget  => 1 Gadget, 1s                (assembling)
//	gizmo    -> 1 Widget + 1 Gadget => 1 Gizmo, 2s       (assembling)
//	recycler -> 1 Gizmo   => 1 Widget, 1s                (assembling)
//	coolant  -> 10 water  => 1 fluoroketone-cold, 5s     (cryogenic)
//
// recycler exists to wire cycles (widget -> ... -> recycler -> widget).
func Catalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	recipes := []catalog.Recipe{
		{
			ID: "widget", Name: "Widget", Category: "assembling", Time: 1,
			Outputs: []catalog.ItemQty{{Item: "Widget", Qty: 1}},
		},
		{
			ID: "gadget", Name: "Gadget", Category: "assembling", Time: 1,
			Inputs:  []catalog.ItemQty{{Item: "Widget", Qty: 2}},
			Outputs: []catalog.ItemQty{{Item: "Gadget", Qty: 1}},
		},
		{
			ID: "gizmo", Name: "Gizmo", Category: "assembling", Time: 2,
			Inputs:  []catalog.ItemQty{{Item: "Widget", Qty: 1}, {Item: "Gadget", Qty: 1}},
			Outputs: []catalog.ItemQty{{Item: "Gizmo", Qty: 1}},
		},
		{
			ID: "recycler", Name: "Recycler", Category: "assembling", Time: 1,
			Inputs:  []catalog.ItemQty{{Item: "Gizmo", Qty: 1}},
			Outputs: []catalog.ItemQty{{Item: "Widget", Qty: 1}},
		},
		{
			ID: "coolant", Name: "Coolant", Category: "cryogenic", Time: 5,
			Inputs:  []catalog.ItemQty{{Item: "water", Qty: 10}},
			Outputs: []catalog.ItemQty{{Item: "fluoroketone-cold", Qty: 1}},
		},
	}
	tiers := []catalog.MachineTier{
		{ID: "assembler-1", Name: "Assembler 1", Category: "assembling", Speed: 0.5, ModuleSlots: 0},
		{ID: "assembler-2", Name: "Assembler 2", Category: "assembling", Speed: 0.75, ModuleSlots: 2},
		{ID: "cryo-plant", Name: "Cryogenic Plant", Category: "cryogenic", Speed: 1, ModuleSlots: 4},
	}
	modules := []catalog.Module{
		{ID: "speed-1", Name: "Speed Module", Type: catalog.ModuleSpeed, Level: 1, Quality: "normal", SpeedBonus: 0.2, EfficiencyBonus: -0.5},
		{ID: "prod-1", Name: "Productivity Module", Type: catalog.ModuleProductivity, Level: 1, Quality: "normal", SpeedBonus: -0.05, ProductivityBonus: 0.04},
		{ID: "eff-1", Name: "Efficiency Module", Type: catalog.ModuleEfficiency, Level: 1, Quality: "normal", EfficiencyBonus: 0.3},
	}

	c, err := catalog.New(recipes, tiers, modules)
	if err != nil {
		t.Fatalf("test catalog: %v", err)
	}
	return c
}

// FloatPtr returns a pointer to v. Target rates are optional, so tests
// set them through this helper.
func FloatPtr(v float64) *float64 {
	return &v
}
