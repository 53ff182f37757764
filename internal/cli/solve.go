package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/beltline/beltline/internal/compiler"
	"github.com/beltline/beltline/internal/engine"
	"github.com/beltline/beltline/internal/plan"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	*RootOptions
	CatalogDir string
	Mode       string
	Output     string
}

// SolveResult is the JSON payload of a solve run.
type SolveResult struct {
	Targets   map[string]float64 `json:"targets"`
	Passes    int                `json:"passes"`
	Converged bool               `json:"converged"`
	HasCycle  bool               `json:"hasCycle"`
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "solve <plan.json>",
		Short: "Propagate demand through a plan",
		Long: `Run the flow solver over a plan document.

Loads the plan, propagates demand from every targeted node upstream,
and prints the resulting per-node rates. With --output, writes the
solved plan back out as JSON.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.CatalogDir, "catalog", "", "CUE catalog directory (required)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "sum", "demand aggregation mode (sum|max)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the solved plan to this file")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

func runSolve(opts *SolveOptions, planFile string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	mode, err := engine.ParseAggregateMode(opts.Mode)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	cat, errs := compiler.LoadDir(opts.CatalogDir, compiler.CollectAll)
	if len(errs) > 0 {
		return outputCatalogErrors(formatter, errs)
	}

	doc, err := loadPlanFile(planFile)
	if err != nil {
		_ = formatter.Error(ErrCodePlan, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	planner := engine.NewPlanner(cat, plan.UUIDv7Generator{}, engine.WithAggregateMode(mode))
	planner.Load(doc)
	res := planner.LastResult()
	solved := planner.Snapshot()

	formatter.VerboseLog("Solved %d node(s) in %d pass(es)", len(solved.Nodes), res.Passes)

	if opts.Output != "" {
		data, err := json.MarshalIndent(solved, "", "  ")
		if err != nil {
			_ = formatter.Error(ErrCodeWrite, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			_ = formatter.Error(ErrCodeWrite, fmt.Sprintf("writing output file: %v", err), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputSolveResult(formatter, solved, res, opts.Output)
}

func outputSolveResult(formatter *OutputFormatter, solved plan.Document, res engine.Result, outputFile string) error {
	if formatter.Format == "json" {
		targets := make(map[string]float64, len(solved.Nodes))
		for _, n := range solved.Nodes {
			if n.TargetPerMin != nil {
				targets[n.ID] = *n.TargetPerMin
			}
		}
		return formatter.Success(SolveResult{
			Targets:   targets,
			Passes:    res.Passes,
			Converged: res.Converged,
			HasCycle:  res.HasCycle,
		})
	}

	if res.Converged {
		fmt.Fprintf(formatter.Writer, "✓ Converged in %d pass(es)\n\n", res.Passes)
	} else {
		fmt.Fprintf(formatter.Writer, "✗ Did not converge after %d pass(es)", res.Passes)
		if res.HasCycle {
			fmt.Fprint(formatter.Writer, " (plan contains a cycle)")
		}
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer)
	}

	nodes := append([]plan.Node(nil), solved.Nodes...)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	for _, n := range nodes {
		rate := "-"
		if n.TargetPerMin != nil {
			rate = fmt.Sprintf("%v/min", *n.TargetPerMin)
		}
		fmt.Fprintf(formatter.Writer, "  %s (%s): %s\n", n.ID, n.RecipeID, rate)
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote solved plan to %s\n", outputFile)
	}

	return nil
}
