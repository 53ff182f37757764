package catalog

import (
	"fmt"
	"sort"
)

// Catalog is the immutable lookup service over static reference data.
//
// Construction validates the tables and builds the reverse item
// indices. After New returns, the Catalog is safe for concurrent
// readers and is never mutated.
type Catalog struct {
	recipes map[string]Recipe
	tiers   map[string][]MachineTier // category -> tiers, declaration order
	tierIDs map[string]MachineTier
	modules []Module

	producers map[string][]string // item -> recipe IDs producing it
	consumers map[string][]string // item -> recipe IDs consuming it

	intermediates map[string]bool
	fluids        map[string]bool
}

// Option configures catalog construction.
type Option func(*Catalog)

// WithExtraIntermediates extends the built-in intermediate-product
// allow-list. Used by the compiler when catalog data declares
// additional items.
func WithExtraIntermediates(items []string) Option {
	return func(c *Catalog) {
		for _, it := range items {
			c.intermediates[it] = true
		}
	}
}

// WithExtraFluids extends the built-in fluid allow-list.
func WithExtraFluids(items []string) Option {
	return func(c *Catalog) {
		for _, it := range items {
			c.fluids[it] = true
		}
	}
}

// New builds a Catalog from recipe, tier, and module tables.
//
// Validation errors (duplicate recipe ID, recipe with no outputs,
// non-positive craft time, tier with unknown fields) fail construction:
// a half-valid catalog would poison every downstream computation.
func New(recipes []Recipe, tiers []MachineTier, modules []Module, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		recipes:       make(map[string]Recipe, len(recipes)),
		tiers:         make(map[string][]MachineTier),
		tierIDs:       make(map[string]MachineTier, len(tiers)),
		modules:       append([]Module(nil), modules...),
		producers:     make(map[string][]string),
		consumers:     make(map[string][]string),
		intermediates: make(map[string]bool, len(defaultIntermediates)),
		fluids:        make(map[string]bool, len(defaultFluids)),
	}
	for _, it := range defaultIntermediates {
		c.intermediates[it] = true
	}
	for _, it := range defaultFluids {
		c.fluids[it] = true
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, r := range recipes {
		if r.ID == "" {
			return nil, fmt.Errorf("recipe %q: empty ID", r.Name)
		}
		if _, dup := c.recipes[r.ID]; dup {
			return nil, fmt.Errorf("duplicate recipe ID: %s", r.ID)
		}
		if len(r.Outputs) == 0 {
			return nil, fmt.Errorf("recipe %s: no outputs", r.ID)
		}
		if r.Time <= 0 {
			return nil, fmt.Errorf("recipe %s: craft time must be positive, got %v", r.ID, r.Time)
		}
		c.recipes[r.ID] = r
	}

	for _, t := range tiers {
		if t.ID == "" {
			return nil, fmt.Errorf("machine tier %q: empty ID", t.Name)
		}
		if _, dup := c.tierIDs[t.ID]; dup {
			return nil, fmt.Errorf("duplicate machine tier ID: %s", t.ID)
		}
		if t.Speed <= 0 {
			return nil, fmt.Errorf("machine tier %s: speed must be positive, got %v", t.ID, t.Speed)
		}
		if t.ModuleSlots < 0 {
			return nil, fmt.Errorf("machine tier %s: negative module slots", t.ID)
		}
		c.tierIDs[t.ID] = t
		c.tiers[t.Category] = append(c.tiers[t.Category], t)
	}

	seenModule := make(map[string]bool, len(modules))
	for _, m := range modules {
		if m.ID == "" {
			return nil, fmt.Errorf("module %q: empty ID", m.Name)
		}
		if seenModule[m.ID] {
			return nil, fmt.Errorf("duplicate module ID: %s", m.ID)
		}
		seenModule[m.ID] = true
		if !ValidModuleType(m.Type) {
			return nil, fmt.Errorf("module %s: unknown type %q", m.ID, m.Type)
		}
	}

	c.buildIndices()
	return c, nil
}

// buildIndices populates the item -> recipe reverse indices.
// Recipe IDs within each index entry are sorted for deterministic
// iteration by callers.
func (c *Catalog) buildIndices() {
	for id, r := range c.recipes {
		for _, out := range r.Outputs {
			c.producers[out.Item] = append(c.producers[out.Item], id)
		}
		for _, in := range r.Inputs {
			c.consumers[in.Item] = append(c.consumers[in.Item], id)
		}
	}
	for _, ids := range c.producers {
		sort.Strings(ids)
	}
	for _, ids := range c.consumers {
		sort.Strings(ids)
	}
}

// Recipe returns the recipe with the given ID.
func (c *Catalog) Recipe(id string) (Recipe, bool) {
	r, ok := c.recipes[id]
	return r, ok
}

// Recipes returns all recipe IDs in sorted order.
func (c *Catalog) Recipes() []string {
	ids := make([]string, 0, len(c.recipes))
	for id := range c.recipes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TiersFor returns the machine tiers for a category in declaration
// order. The first tier is the default for new nodes. Returns nil for
// an unknown category.
func (c *Catalog) TiersFor(category string) []MachineTier {
	return c.tiers[category]
}

// Tiers returns every machine tier sorted by ID.
func (c *Catalog) Tiers() []MachineTier {
	tiers := make([]MachineTier, 0, len(c.tierIDs))
	for _, t := range c.tierIDs {
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].ID < tiers[j].ID })
	return tiers
}

// Tier returns the machine tier with the given ID.
func (c *Catalog) Tier(id string) (MachineTier, bool) {
	t, ok := c.tierIDs[id]
	return t, ok
}

// Modules returns all modules in declaration order.
func (c *Catalog) Modules() []Module {
	return c.modules
}

// ProducersOf returns the IDs of recipes that output the item.
func (c *Catalog) ProducersOf(item string) []string {
	return c.producers[item]
}

// ConsumersOf returns the IDs of recipes that consume the item.
func (c *Catalog) ConsumersOf(item string) []string {
	return c.consumers[item]
}

// IsIntermediateProduct reports whether the item is on the curated
// productivity-eligible allow-list.
func (c *Catalog) IsIntermediateProduct(item string) bool {
	return c.intermediates[item]
}

// IsFluid reports whether the item is on the fluid allow-list.
func (c *Catalog) IsFluid(item string) bool {
	return c.fluids[item]
}
