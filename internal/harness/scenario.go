package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a planner conformance scenario: a catalog, a script
// of graph mutations, and the rates the solver must settle on.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Catalog is the CUE catalog directory, relative to the scenario
	// file location.
	Catalog string `yaml:"catalog"`

	// Mode is the demand aggregation mode, "sum" (default) or "max".
	Mode string `yaml:"mode,omitempty"`

	// Steps is the mutation script, executed in order against a fresh
	// planner.
	Steps []Step `yaml:"steps"`

	// Expect describes the final state after all steps have run.
	Expect Expect `yaml:"expect"`
}

// Step operation names.
const (
	OpAddNode    = "add_node"
	OpAddEdge    = "add_edge"
	OpRemoveNode = "remove_node"
	OpRemoveEdge = "remove_edge"
	OpSetTarget  = "set_target"
	OpSetMode    = "set_mode"
)

// Step is one scripted mutation. Nodes are referred to by alias, never
// by generated ID, so scenarios stay readable and ID-scheme agnostic.
type Step struct {
	Op string `yaml:"op"`

	// add_node
	Alias  string  `yaml:"alias,omitempty"`
	Recipe string  `yaml:"recipe,omitempty"`
	X      float64 `yaml:"x,omitempty"`
	Y      float64 `yaml:"y,omitempty"`

	// add_edge / remove_edge
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`
	Item string `yaml:"item,omitempty"`

	// set_target / remove_node
	Node string   `yaml:"node,omitempty"`
	Rate *float64 `yaml:"rate,omitempty"` // nil clears the target

	// set_mode
	Mode string `yaml:"mode,omitempty"`
}

// Expect describes the required final state. Rates is keyed by node
// alias; a node's rate is its stored target after the final solve
// (0 for an unset target).
type Expect struct {
	Rates     map[string]float64 `yaml:"rates"`
	Converged *bool              `yaml:"converged,omitempty"`
	HasCycle  *bool              `yaml:"has_cycle,omitempty"`
	Passes    *int               `yaml:"passes,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. The catalog path
// is resolved relative to the scenario file's directory. Unknown YAML
// fields are rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if _, err := os.Stat(s.Catalog); os.IsNotExist(err) {
		return fmt.Errorf("catalog directory not found: %s", s.Catalog)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Mode != "" && s.Mode != "sum" && s.Mode != "max" {
		return fmt.Errorf("mode must be \"sum\" or \"max\", got %q", s.Mode)
	}

	aliases := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(i, &step, aliases); err != nil {
			return err
		}
	}

	if len(s.Expect.Rates) == 0 {
		return fmt.Errorf("expect.rates is required and must be non-empty")
	}
	for alias := range s.Expect.Rates {
		if !aliases[alias] {
			return fmt.Errorf("expect.rates names unknown alias %q", alias)
		}
	}

	return nil
}

// validateStep validates a single step and tracks declared aliases.
// Aliases removed by remove_node stay known: expectations may not name
// them, but later steps referring to them fail at run time, which is
// the error the scenario author wants to see.
func validateStep(index int, step *Step, aliases map[string]bool) error {
	switch step.Op {
	case OpAddNode:
		if step.Alias == "" {
			return fmt.Errorf("steps[%d]: alias is required for add_node", index)
		}
		if step.Recipe == "" {
			return fmt.Errorf("steps[%d]: recipe is required for add_node", index)
		}
		if aliases[step.Alias] {
			return fmt.Errorf("steps[%d]: duplicate alias %q", index, step.Alias)
		}
		aliases[step.Alias] = true
	case OpAddEdge, OpRemoveEdge:
		if step.From == "" || step.To == "" || step.Item == "" {
			return fmt.Errorf("steps[%d]: from, to, and item are required for %s", index, step.Op)
		}
	case OpRemoveNode:
		if step.Node == "" {
			return fmt.Errorf("steps[%d]: node is required for remove_node", index)
		}
	case OpSetTarget:
		if step.Node == "" {
			return fmt.Errorf("steps[%d]: node is required for set_target", index)
		}
	case OpSetMode:
		if step.Mode != "sum" && step.Mode != "max" {
			return fmt.Errorf("steps[%d]: mode must be \"sum\" or \"max\", got %q", index, step.Mode)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}
	return nil
}
