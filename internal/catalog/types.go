package catalog

// ItemQty is a named item quantity on one side of a recipe.
type ItemQty struct {
	Item string  `json:"item"`
	Qty  float64 `json:"qty"`
}

// Recipe is a static crafting transformation. Recipes are identified by
// a catalog-unique ID and never change after the catalog is built.
//
// Outputs are ordered: the first entry is the "primary output", the
// item all rate math is expressed in (items of primary output per
// minute). Insertion order of the remaining outputs carries no meaning.
type Recipe struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Time     float64   `json:"time"` // seconds per craft at speed 1.0
	Inputs   []ItemQty `json:"inputs"`
	Outputs  []ItemQty `json:"outputs"`
}

// PrimaryOutput returns the first-listed output and true, or a zero
// value and false for a recipe with no outputs (a sink-only recipe).
func (r Recipe) PrimaryOutput() (ItemQty, bool) {
	if len(r.Outputs) == 0 {
		return ItemQty{}, false
	}
	return r.Outputs[0], true
}

// InputQty returns the per-craft quantity of the named input item,
// or 0 if the recipe does not consume that item.
func (r Recipe) InputQty(item string) float64 {
	for _, in := range r.Inputs {
		if in.Item == item {
			return in.Qty
		}
	}
	return 0
}

// ProducesItem reports whether the recipe lists item among its outputs.
func (r Recipe) ProducesItem(item string) bool {
	for _, out := range r.Outputs {
		if out.Item == item {
			return true
		}
	}
	return false
}

// MachineTier is one machine variant within a category (e.g. the three
// assembler tiers). Tiers for a category are ordered; the first tier is
// the default for newly placed nodes.
type MachineTier struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Speed       float64 `json:"speed"`
	ModuleSlots int     `json:"moduleSlots"`
}

// ModuleType classifies what a module boosts.
type ModuleType string

const (
	ModuleSpeed        ModuleType = "speed"
	ModuleProductivity ModuleType = "productivity"
	ModuleEfficiency   ModuleType = "efficiency"
	ModuleQuality      ModuleType = "quality"
)

// ValidModuleType reports whether t is one of the known module types.
func ValidModuleType(t ModuleType) bool {
	switch t {
	case ModuleSpeed, ModuleProductivity, ModuleEfficiency, ModuleQuality:
		return true
	}
	return false
}

// Module is an insertable machine module. Modules are serialized in
// full inside plan documents (not as ID references), so the struct
// carries every field the document format needs.
type Module struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Type              ModuleType `json:"type"`
	Level             int        `json:"level"`
	Quality           string     `json:"quality"`
	SpeedBonus        float64    `json:"speedBonus"`
	ProductivityBonus float64    `json:"productivityBonus"`
	EfficiencyBonus   float64    `json:"efficiencyBonus"`
	IconAsset         string     `json:"iconAsset,omitempty"`
}
