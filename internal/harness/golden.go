package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/beltline/beltline/internal/plan"
)

// snapshotMap flattens a scenario result into plain maps and slices for
// canonical JSON serialization. Canonical form keeps golden files
// byte-stable across Go versions and map iteration orders.
func snapshotMap(scenario *Scenario, result *Result) map[string]any {
	traceList := make([]any, len(result.Trace))
	for i, event := range result.Trace {
		traceList[i] = map[string]any{
			"op":      event.Op,
			"subject": event.Subject,
			"rev":     event.Rev,
		}
	}

	rates := make(map[string]any, len(result.Rates))
	for alias, rate := range result.Rates {
		rates[alias] = rate
	}

	return map[string]any{
		"scenario_name": scenario.Name,
		"mode":          effectiveMode(scenario),
		"trace":         traceList,
		"rates":         rates,
		"passes":        result.Passes,
		"converged":     result.Converged,
		"has_cycle":     result.HasCycle,
	}
}

func effectiveMode(scenario *Scenario) string {
	if scenario.Mode == "" {
		return "sum"
	}
	return scenario.Mode
}

// RunWithGolden executes a scenario and compares its trace snapshot
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	snapshot, err := plan.MarshalCanonical(snapshotMap(scenario, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)

	return nil
}
