package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beltline/beltline/internal/catalog"
	"github.com/beltline/beltline/internal/compiler"
	"github.com/beltline/beltline/internal/plan"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	PlanFile string
}

// PlanIssue is one problem found while checking a plan against the
// catalog. Warnings (advisory module placement, item-mismatch edges)
// do not fail validation; errors do.
type PlanIssue struct {
	Severity string `json:"severity"` // "error" or "warning"
	Subject  string `json:"subject"`  // node or edge ID
	Message  string `json:"message"`
}

// ValidationReport is the JSON payload of a validate run.
type ValidationReport struct {
	CatalogDir string      `json:"catalogDir"`
	PlanFile   string      `json:"planFile,omitempty"`
	Issues     []PlanIssue `json:"issues"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <catalog-dir>",
		Short: "Validate catalog data and optionally a plan",
		Long: `Validate CUE catalog data, reporting every problem at once.

With --plan, also checks a plan document against the compiled catalog:
unknown recipes and tiers, dangling or self-loop edges, duplicate
connections, and advisory module placement.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.PlanFile, "plan", "", "plan JSON file to validate against the catalog")

	return cmd
}

func runValidate(opts *ValidateOptions, catalogDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cat, errs := compiler.LoadDir(catalogDir, compiler.CollectAll)
	if len(errs) > 0 {
		return outputCatalogErrors(formatter, errs)
	}

	report := ValidationReport{CatalogDir: catalogDir, Issues: []PlanIssue{}}

	if opts.PlanFile != "" {
		doc, err := loadPlanFile(opts.PlanFile)
		if err != nil {
			_ = formatter.Error(ErrCodePlan, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		report.PlanFile = opts.PlanFile
		report.Issues = checkPlan(doc, cat)
	}

	return outputValidationReport(formatter, report)
}

// checkPlan verifies a plan document against the catalog.
func checkPlan(doc plan.Document, cat *catalog.Catalog) []PlanIssue {
	issues := []PlanIssue{}
	errorf := func(subject, format string, args ...any) {
		issues = append(issues, PlanIssue{Severity: "error", Subject: subject, Message: fmt.Sprintf(format, args...)})
	}
	warnf := func(subject, format string, args ...any) {
		issues = append(issues, PlanIssue{Severity: "warning", Subject: subject, Message: fmt.Sprintf(format, args...)})
	}

	nodes := make(map[string]plan.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if _, dup := nodes[n.ID]; dup {
			errorf(n.ID, "duplicate node ID")
			continue
		}
		nodes[n.ID] = n

		r, ok := cat.Recipe(n.RecipeID)
		if !ok {
			errorf(n.ID, "unknown recipe %q", n.RecipeID)
			continue
		}
		if n.SelectedMachineTierID != "" {
			tier, ok := cat.Tier(n.SelectedMachineTierID)
			if !ok {
				errorf(n.ID, "unknown machine tier %q", n.SelectedMachineTierID)
			} else {
				if tier.Category != r.Category {
					warnf(n.ID, "tier %s is for category %q, recipe wants %q", tier.ID, tier.Category, r.Category)
				}
				if len(n.Modules) != tier.ModuleSlots {
					errorf(n.ID, "module slice has %d entries, tier %s has %d slot(s)", len(n.Modules), tier.ID, tier.ModuleSlots)
				}
			}
		}
		for i, m := range n.Modules {
			if m == nil {
				continue
			}
			if !cat.CanUseModule(*m, r) {
				warnf(n.ID, "module %s (slot %d) is not normally legal for recipe %s", m.ID, i, r.ID)
			}
		}
		if n.TargetPerMin != nil && *n.TargetPerMin < 0 {
			errorf(n.ID, "negative target rate %v", *n.TargetPerMin)
		}
	}

	type triple struct{ from, to, item string }
	seen := make(map[triple]bool, len(doc.Edges))
	for _, e := range doc.Edges {
		from, fromOK := nodes[e.FromNode]
		to, toOK := nodes[e.ToNode]
		if !fromOK {
			errorf(e.ID, "edge source %q does not exist", e.FromNode)
		}
		if !toOK {
			errorf(e.ID, "edge target %q does not exist", e.ToNode)
		}
		if e.FromNode == e.ToNode {
			errorf(e.ID, "self-loop on node %q", e.FromNode)
		}
		key := triple{e.FromNode, e.ToNode, e.Item}
		if seen[key] {
			errorf(e.ID, "duplicate connection %s -> %s for item %q", e.FromNode, e.ToNode, e.Item)
		}
		seen[key] = true

		if !fromOK || !toOK {
			continue
		}
		fromRecipe, ok1 := cat.Recipe(from.RecipeID)
		toRecipe, ok2 := cat.Recipe(to.RecipeID)
		if !ok1 || !ok2 {
			continue
		}
		if !fromRecipe.ProducesItem(e.Item) {
			warnf(e.ID, "recipe %s does not output %q; edge carries no flow", fromRecipe.ID, e.Item)
		}
		if toRecipe.InputQty(e.Item) == 0 {
			warnf(e.ID, "recipe %s does not consume %q; edge carries no flow", toRecipe.ID, e.Item)
		}
	}

	return issues
}

func outputValidationReport(formatter *OutputFormatter, report ValidationReport) error {
	errorCount := 0
	for _, issue := range report.Issues {
		if issue.Severity == "error" {
			errorCount++
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
		if errorCount > 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("plan validation failed with %d error(s)", errorCount))
		}
		return nil
	}

	if len(report.Issues) == 0 {
		if report.PlanFile != "" {
			fmt.Fprintf(formatter.Writer, "✓ Catalog %s and plan %s are valid\n", report.CatalogDir, report.PlanFile)
		} else {
			fmt.Fprintf(formatter.Writer, "✓ Catalog %s is valid\n", report.CatalogDir)
		}
		return nil
	}

	for _, issue := range report.Issues {
		fmt.Fprintf(formatter.Writer, "%s [%s]: %s\n", issue.Severity, issue.Subject, issue.Message)
	}
	if errorCount > 0 {
		fmt.Fprintf(formatter.Writer, "\n✗ %d error(s), %d warning(s)\n", errorCount, len(report.Issues)-errorCount)
		return NewExitError(ExitFailure, fmt.Sprintf("plan validation failed with %d error(s)", errorCount))
	}
	fmt.Fprintf(formatter.Writer, "\n✓ Valid with %d warning(s)\n", len(report.Issues))
	return nil
}
