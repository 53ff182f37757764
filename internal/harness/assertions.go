package harness

import (
	"fmt"
	"math"
	"sort"
)

// rateTolerance absorbs float noise when comparing expected rates.
// Solver output is already rounded to a tenth, so anything tighter
// would only test the comparison itself.
const rateTolerance = 1e-9

// CheckExpectations compares a scenario result against the scenario's
// expect block. Returns one error per violated expectation so a failing
// scenario reports everything at once.
func CheckExpectations(scenario *Scenario, result *Result) []error {
	var errs []error

	aliases := make([]string, 0, len(scenario.Expect.Rates))
	for alias := range scenario.Expect.Rates {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		want := scenario.Expect.Rates[alias]
		got, ok := result.Rates[alias]
		if !ok {
			errs = append(errs, fmt.Errorf("rates: node %q not present in result", alias))
			continue
		}
		if math.Abs(got-want) > rateTolerance {
			errs = append(errs, fmt.Errorf("rates: node %q = %v, want %v", alias, got, want))
		}
	}

	if scenario.Expect.Converged != nil && result.Converged != *scenario.Expect.Converged {
		errs = append(errs, fmt.Errorf("converged = %v, want %v", result.Converged, *scenario.Expect.Converged))
	}
	if scenario.Expect.HasCycle != nil && result.HasCycle != *scenario.Expect.HasCycle {
		errs = append(errs, fmt.Errorf("has_cycle = %v, want %v", result.HasCycle, *scenario.Expect.HasCycle))
	}
	if scenario.Expect.Passes != nil && result.Passes != *scenario.Expect.Passes {
		errs = append(errs, fmt.Errorf("passes = %d, want %d", result.Passes, *scenario.Expect.Passes))
	}

	return errs
}
