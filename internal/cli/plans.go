package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/beltline/beltline/internal/store"
)

// PlansOptions holds flags shared by the plans subcommands.
type PlansOptions struct {
	*RootOptions
	DBPath string
}

// NewPlansCommand creates the plans command group.
func NewPlansCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlansOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage saved plans",
		Long:  "List, save, export, and delete plans in the plan database.",
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "beltline.db", "plan database path")

	cmd.AddCommand(newPlansListCommand(opts))
	cmd.AddCommand(newPlansSaveCommand(opts))
	cmd.AddCommand(newPlansExportCommand(opts))
	cmd.AddCommand(newPlansDeleteCommand(opts))

	return cmd
}

func openPlanStore(opts *PlansOptions, formatter *OutputFormatter) (*store.Store, error) {
	s, err := store.Open(opts.DBPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, fmt.Sprintf("open plan database: %v", err), nil)
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("open plan database: %v", err))
	}
	return s, nil
}

func newPlansListCommand(opts *PlansOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List saved plans",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)
			s, err := openPlanStore(opts, formatter)
			if err != nil {
				return err
			}
			defer s.Close()

			plans, err := s.ListPlans(cmd.Context())
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return NewExitError(ExitCommandError, err.Error())
			}

			if formatter.Format == "json" {
				return formatter.Success(plans)
			}

			if len(plans) == 0 {
				fmt.Fprintln(formatter.Writer, "No saved plans")
				return nil
			}
			w := tabwriter.NewWriter(formatter.Writer, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSAVED AT\tHASH")
			for _, p := range plans {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.SavedAt.Format(time.RFC3339), p.Hash[:12])
			}
			return w.Flush()
		},
	}
}

func newPlansSaveCommand(opts *PlansOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "save <name> <plan.json>",
		Short:         "Save a plan file under a name",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)
			name := args[0]

			doc, err := loadPlanFile(args[1])
			if err != nil {
				_ = formatter.Error(ErrCodePlan, err.Error(), nil)
				return NewExitError(ExitCommandError, err.Error())
			}

			s, err := openPlanStore(opts, formatter)
			if err != nil {
				return err
			}
			defer s.Close()

			changed, err := s.SavePlan(cmd.Context(), name, doc)
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return NewExitError(ExitCommandError, err.Error())
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]any{"name": name, "changed": changed})
			}
			if changed {
				fmt.Fprintf(formatter.Writer, "Saved plan %q\n", name)
			} else {
				fmt.Fprintf(formatter.Writer, "Plan %q unchanged, nothing to save\n", name)
			}
			return nil
		},
	}
}

func newPlansExportCommand(opts *PlansOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:           "export <name>",
		Short:         "Export a saved plan as JSON",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)
			name := args[0]

			s, err := openPlanStore(opts, formatter)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := s.LoadPlan(cmd.Context(), name)
			if errors.Is(err, store.ErrNotFound) {
				_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("no plan named %q", name), nil)
				return NewExitError(ExitCommandError, fmt.Sprintf("no plan named %q", name))
			}
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return NewExitError(ExitCommandError, err.Error())
			}

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				_ = formatter.Error(ErrCodeWrite, err.Error(), nil)
				return NewExitError(ExitCommandError, err.Error())
			}

			if output != "" {
				if err := os.WriteFile(output, data, 0644); err != nil {
					_ = formatter.Error(ErrCodeWrite, err.Error(), nil)
					return NewExitError(ExitCommandError, err.Error())
				}
				fmt.Fprintf(formatter.Writer, "Wrote plan %q to %s\n", name, output)
				return nil
			}

			fmt.Fprintln(formatter.Writer, string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newPlansDeleteCommand(opts *PlansOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a saved plan",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)
			name := args[0]

			s, err := openPlanStore(opts, formatter)
			if err != nil {
				return err
			}
			defer s.Close()

			err = s.DeletePlan(cmd.Context(), name)
			if errors.Is(err, store.ErrNotFound) {
				_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("no plan named %q", name), nil)
				return NewExitError(ExitCommandError, fmt.Sprintf("no plan named %q", name))
			}
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return NewExitError(ExitCommandError, err.Error())
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]any{"name": name, "deleted": true})
			}
			fmt.Fprintf(formatter.Writer, "Deleted plan %q\n", name)
			return nil
		},
	}
}
