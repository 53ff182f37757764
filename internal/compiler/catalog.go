package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/beltline/beltline/internal/catalog"
)

// Mode controls error handling during compilation.
type Mode int

const (
	// FailFast stops at the first error.
	FailFast Mode = iota
	// CollectAll gathers every error before returning, for validation
	// reports that show the whole picture at once.
	CollectAll
)

// itemQtySpec mirrors the CUE shape of one recipe input/output entry.
// Inputs and outputs are lists, not maps, because output order is
// meaningful: the first output is the primary output.
type itemQtySpec struct {
	Item string  `json:"item"`
	Qty  float64 `json:"qty"`
}

type recipeSpec struct {
	Name     string        `json:"name"`
	Category string        `json:"category"`
	Time     float64       `json:"time"`
	Inputs   []itemQtySpec `json:"inputs"`
	Outputs  []itemQtySpec `json:"outputs"`
}

type tierSpec struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Speed       float64 `json:"speed"`
	ModuleSlots int     `json:"moduleSlots"`
}

type moduleSpec struct {
	Name              string  `json:"name"`
	Type              string  `json:"type"`
	Level             int     `json:"level"`
	Quality           string  `json:"quality"`
	SpeedBonus        float64 `json:"speedBonus"`
	ProductivityBonus float64 `json:"productivityBonus"`
	EfficiencyBonus   float64 `json:"efficiencyBonus"`
	IconAsset         string  `json:"iconAsset"`
}

type itemsSpec struct {
	Intermediate []string `json:"intermediate"`
	Fluid        []string `json:"fluid"`
}

// LoadDir loads every CUE file under dir, builds a single unified
// value, and compiles it into a Catalog. Returns the catalog and any
// errors; with CollectAll the catalog is nil whenever errors exist.
func LoadDir(dir string, mode Mode) (*catalog.Catalog, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&CompileError{Message: fmt.Sprintf("catalog directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&CompileError{Message: fmt.Sprintf("access catalog directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&CompileError{Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, []error{&CompileError{Message: fmt.Sprintf("scan catalog directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&CompileError{Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	// Load the files explicitly so catalog data does not need a CUE
	// package clause; all files unify into one instance.
	ctx := cuecontext.New()
	instances := load.Instances(cueFiles, nil)
	if len(instances) == 0 {
		return nil, []error{&CompileError{Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{formatCUEError("", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError("", err)}
	}

	return Compile(value, mode)
}

// Compile builds a Catalog from an already-built CUE value. Tests use
// it with cuecontext.CompileString; LoadDir uses it after loading a
// directory.
func Compile(value cue.Value, mode Mode) (*catalog.Catalog, []error) {
	var errs []error
	fail := func(e error) bool {
		errs = append(errs, e)
		return mode == FailFast
	}

	var recipes []catalog.Recipe
	if stop := forEachEntry(value, "recipe", func(id string, v cue.Value) bool {
		r, err := compileRecipe(id, v)
		if err != nil {
			return fail(err)
		}
		recipes = append(recipes, r)
		return false
	}, fail); stop {
		return nil, errs
	}

	var tiers []catalog.MachineTier
	if stop := forEachEntry(value, "tier", func(id string, v cue.Value) bool {
		t, err := compileTier(id, v)
		if err != nil {
			return fail(err)
		}
		tiers = append(tiers, t)
		return false
	}, fail); stop {
		return nil, errs
	}

	var modules []catalog.Module
	if stop := forEachEntry(value, "module", func(id string, v cue.Value) bool {
		m, err := compileModule(id, v)
		if err != nil {
			return fail(err)
		}
		modules = append(modules, m)
		return false
	}, fail); stop {
		return nil, errs
	}

	var opts []catalog.Option
	itemsVal := value.LookupPath(cue.ParsePath("items"))
	if itemsVal.Exists() {
		var items itemsSpec
		if err := itemsVal.Decode(&items); err != nil {
			if fail(formatCUEError("items", err)) {
				return nil, errs
			}
		} else {
			if len(items.Intermediate) > 0 {
				opts = append(opts, catalog.WithExtraIntermediates(items.Intermediate))
			}
			if len(items.Fluid) > 0 {
				opts = append(opts, catalog.WithExtraFluids(items.Fluid))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	cat, err := catalog.New(recipes, tiers, modules, opts...)
	if err != nil {
		return nil, []error{&CompileError{Message: err.Error()}}
	}
	return cat, nil
}

// forEachEntry iterates the fields of a top-level struct (recipe,
// tier, module). The callback returns true to stop iteration (fail
// fast). Missing structs are fine - a catalog file may hold only
// recipes.
func forEachEntry(value cue.Value, section string, fn func(id string, v cue.Value) bool, fail func(error) bool) bool {
	sectionVal := value.LookupPath(cue.ParsePath(section))
	if !sectionVal.Exists() {
		return false
	}
	iter, err := sectionVal.Fields()
	if err != nil {
		return fail(formatCUEError(section, err))
	}
	for iter.Next() {
		if fn(iter.Selector().Unquoted(), iter.Value()) {
			return true
		}
	}
	return false
}

func compileRecipe(id string, v cue.Value) (catalog.Recipe, error) {
	if err := v.Err(); err != nil {
		return catalog.Recipe{}, formatCUEError("recipe."+id, err)
	}
	if err := requireFields(v, "recipe."+id, "name", "category", "time", "outputs"); err != nil {
		return catalog.Recipe{}, err
	}

	var spec recipeSpec
	if err := v.Decode(&spec); err != nil {
		return catalog.Recipe{}, formatCUEError("recipe."+id, err)
	}

	r := catalog.Recipe{
		ID:       id,
		Name:     spec.Name,
		Category: spec.Category,
		Time:     spec.Time,
		Inputs:   make([]catalog.ItemQty, len(spec.Inputs)),
		Outputs:  make([]catalog.ItemQty, len(spec.Outputs)),
	}
	for i, in := range spec.Inputs {
		r.Inputs[i] = catalog.ItemQty(in)
	}
	for i, out := range spec.Outputs {
		r.Outputs[i] = catalog.ItemQty(out)
	}
	return r, nil
}

func compileTier(id string, v cue.Value) (catalog.MachineTier, error) {
	if err := v.Err(); err != nil {
		return catalog.MachineTier{}, formatCUEError("tier."+id, err)
	}
	if err := requireFields(v, "tier."+id, "name", "category", "speed"); err != nil {
		return catalog.MachineTier{}, err
	}

	var spec tierSpec
	if err := v.Decode(&spec); err != nil {
		return catalog.MachineTier{}, formatCUEError("tier."+id, err)
	}

	return catalog.MachineTier{
		ID:          id,
		Name:        spec.Name,
		Category:    spec.Category,
		Speed:       spec.Speed,
		ModuleSlots: spec.ModuleSlots,
	}, nil
}

func compileModule(id string, v cue.Value) (catalog.Module, error) {
	if err := v.Err(); err != nil {
		return catalog.Module{}, formatCUEError("module."+id, err)
	}
	if err := requireFields(v, "module."+id, "name", "type"); err != nil {
		return catalog.Module{}, err
	}

	var spec moduleSpec
	if err := v.Decode(&spec); err != nil {
		return catalog.Module{}, formatCUEError("module."+id, err)
	}
	if !catalog.ValidModuleType(catalog.ModuleType(spec.Type)) {
		return catalog.Module{}, &CompileError{
			Field:   "module." + id + ".type",
			Message: fmt.Sprintf("unknown module type %q", spec.Type),
			Pos:     v.Pos(),
		}
	}

	return catalog.Module{
		ID:                id,
		Name:              spec.Name,
		Type:              catalog.ModuleType(spec.Type),
		Level:             spec.Level,
		Quality:           spec.Quality,
		SpeedBonus:        spec.SpeedBonus,
		ProductivityBonus: spec.ProductivityBonus,
		EfficiencyBonus:   spec.EfficiencyBonus,
		IconAsset:         spec.IconAsset,
	}, nil
}

// requireFields produces a positioned error for each missing required
// field, one at a time so the message points at the entry.
func requireFields(v cue.Value, entry string, fields ...string) error {
	for _, f := range fields {
		fv := v.LookupPath(cue.ParsePath(f))
		if !fv.Exists() {
			return &CompileError{
				Field:   entry + "." + f,
				Message: f + " is required",
				Pos:     v.Pos(),
			}
		}
	}
	return nil
}

// findCUEFiles returns the .cue files directly under dir.
func findCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".cue") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
