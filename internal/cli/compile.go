package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/beltline/beltline/internal/catalog"
	"github.com/beltline/beltline/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledCatalog is the serialized form of a compiled catalog.
type CompiledCatalog struct {
	Recipes []catalog.Recipe      `json:"recipes"`
	Tiers   []catalog.MachineTier `json:"tiers"`
	Modules []catalog.Module      `json:"modules"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <catalog-dir>",
		Short: "Compile CUE catalog data",
		Long: `Compile CUE catalog files into recipe, tier, and module tables.

The compiler parses CUE files, validates every entry, and reports all
problems with source positions.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, catalogDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cat, errs := compiler.LoadDir(catalogDir, compiler.CollectAll)
	if len(errs) > 0 {
		return outputCatalogErrors(formatter, errs)
	}

	result := snapshotCatalog(cat)
	formatter.VerboseLog("Compiled %d recipe(s), %d tier(s), %d module(s) from %s",
		len(result.Recipes), len(result.Tiers), len(result.Modules), catalogDir)

	if opts.Output != "" {
		if err := writeCatalogToFile(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWrite, fmt.Sprintf("writing output file: %v", err), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// snapshotCatalog flattens a catalog back into serializable tables.
func snapshotCatalog(cat *catalog.Catalog) *CompiledCatalog {
	result := &CompiledCatalog{
		Tiers:   cat.Tiers(),
		Modules: cat.Modules(),
	}
	for _, id := range cat.Recipes() {
		r, _ := cat.Recipe(id)
		result.Recipes = append(result.Recipes, r)
	}
	return result
}

func outputCompileSuccess(formatter *OutputFormatter, result *CompiledCatalog, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d recipe(s), %d tier(s), %d module(s)\n\n",
		len(result.Recipes), len(result.Tiers), len(result.Modules))

	if len(result.Recipes) > 0 {
		fmt.Fprintln(formatter.Writer, "Recipes:")
		for _, r := range result.Recipes {
			primary, _ := r.PrimaryOutput()
			fmt.Fprintf(formatter.Writer, "  %s: %d input(s) -> %s x%v (%vs, %s)\n",
				r.ID, len(r.Inputs), primary.Item, primary.Qty, r.Time, r.Category)
		}
		fmt.Fprintln(formatter.Writer)
	}

	if len(result.Tiers) > 0 {
		fmt.Fprintln(formatter.Writer, "Machine tiers:")
		for _, t := range result.Tiers {
			fmt.Fprintf(formatter.Writer, "  %s: speed %v, %d module slot(s), %s\n",
				t.ID, t.Speed, t.ModuleSlots, t.Category)
		}
		fmt.Fprintln(formatter.Writer)
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote compiled catalog to %s\n", outputFile)
	}

	return nil
}

// writeCatalogToFile writes the compiled catalog to a file as indented JSON.
func writeCatalogToFile(result *CompiledCatalog, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
