package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/beltline/beltline/internal/catalog"
	"github.com/beltline/beltline/internal/compiler"
	"github.com/beltline/beltline/internal/plan"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	CatalogDir string
}

// NodeReport is the derived view of one plan node.
type NodeReport struct {
	ID             string  `json:"id"`
	RecipeID       string  `json:"recipeID"`
	TierID         string  `json:"tierID,omitempty"`
	TargetPerMin   float64 `json:"targetPerMin"`
	EffectiveSpeed float64 `json:"effectiveSpeed"`
	CraftsPerMin   float64 `json:"craftsPerMin"`
	MachineCount   float64 `json:"machineCount"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <plan.json>",
		Short: "Show derived per-node machine requirements",
		Long: `Show each node of a plan with its derived values: effective machine
speed, crafts per minute, and the machine count needed to hit the
node's target rate.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.CatalogDir, "catalog", "", "CUE catalog directory (required)")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

func runShow(opts *ShowOptions, planFile string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cat, errs := compiler.LoadDir(opts.CatalogDir, compiler.CollectAll)
	if len(errs) > 0 {
		return outputCatalogErrors(formatter, errs)
	}

	doc, err := loadPlanFile(planFile)
	if err != nil {
		_ = formatter.Error(ErrCodePlan, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	reports := buildNodeReports(doc, cat)

	if formatter.Format == "json" {
		return formatter.Success(reports)
	}

	w := tabwriter.NewWriter(formatter.Writer, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tRECIPE\tTIER\tTARGET/MIN\tSPEED\tCRAFTS/MIN\tMACHINES")
	for _, r := range reports {
		tier := r.TierID
		if tier == "" {
			tier = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%.2f\t%.2f\t%.1f\n",
			r.ID, r.RecipeID, tier, r.TargetPerMin, r.EffectiveSpeed, r.CraftsPerMin, r.MachineCount)
	}
	return w.Flush()
}

// buildNodeReports derives machine requirements for every node.
// Nodes with unknown recipes get a zeroed report rather than an error:
// show is a read-only view and must not refuse a stale plan.
func buildNodeReports(doc plan.Document, cat *catalog.Catalog) []NodeReport {
	reports := make([]NodeReport, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		r := NodeReport{ID: n.ID, RecipeID: n.RecipeID, TierID: n.SelectedMachineTierID}
		if n.TargetPerMin != nil {
			r.TargetPerMin = *n.TargetPerMin
		}

		recipe, ok := cat.Recipe(n.RecipeID)
		if ok {
			r.CraftsPerMin = catalog.CraftsPerMin(r.TargetPerMin, recipe, n.Modules)
			if tier, ok := cat.Tier(n.SelectedMachineTierID); ok {
				r.EffectiveSpeed = catalog.EffectiveSpeed(tier, n.Modules, n.SpeedMultiplier)
				r.MachineCount = catalog.MachineCount(r.TargetPerMin, recipe, tier, n.Modules, n.SpeedMultiplier)
			}
		}
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })
	return reports
}
