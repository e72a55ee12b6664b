package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/habitrack/internal/catalog"
)

// NewToggleCommand creates the toggle command.
func NewToggleCommand(rootOpts *RootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "toggle <habit> <item>",
		Short: "Flip one sub-habit for a day",
		Example: `  habitrack toggle eating home_cooked
  habitrack toggle exercise walk_8k --date 2026-02-04`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.dateArg(date)
			if err != nil {
				return err
			}
			key := catalog.Key(args[0], args[1])
			rec, err := a.tracker.Toggle(cmd.Context(), d, key)
			if err != nil {
				return err
			}

			state := "unchecked"
			if rec.Checked(key) {
				state = "checked"
			}
			_, item, _ := a.tracker.Catalog().Lookup(key)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", d, item.Label, state)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	return cmd
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every check recorded for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.dateArg(date)
			if err != nil {
				return err
			}
			if err := a.tracker.ClearDay(cmd.Context(), d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: cleared\n", d)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	return cmd
}
