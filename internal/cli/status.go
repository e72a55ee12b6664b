package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dukerupert/habitrack/internal/progress"
)

type statusOptions struct {
	date   string
	asJSON bool
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &statusOptions{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show progress, streak, badges and points for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			date, err := a.dateArg(opts.date)
			if err != nil {
				return err
			}
			summary := a.tracker.Summary(date)
			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&opts.date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func printSummary(w io.Writer, s progress.Summary) error {
	fmt.Fprintf(w, "%s\n\n", s.Progress.Date)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, h := range s.Progress.Habits {
		mark := " "
		if h.GoalMet {
			mark = "✓"
		}
		fmt.Fprintf(tw, "%s %s\t%d/%d\t%d%%\tgoal %d\t%s\n", h.Icon, h.Label, h.Done, h.Total, h.Percent, h.Goal, mark)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	day := "not yet"
	if s.Progress.GoalMet {
		day = "all goals met"
	}
	fmt.Fprintf(w, "\nDay:     %s\n", day)
	fmt.Fprintf(w, "Streak:  %d %s\n", s.Streak, plural(s.Streak, "day", "days"))

	ids := make([]string, 0, len(s.Badges))
	for _, b := range s.Badges {
		ids = append(ids, b.Label)
	}
	if len(ids) == 0 {
		ids = append(ids, "none")
	}
	fmt.Fprintf(w, "Badges:  %s\n", strings.Join(ids, ", "))
	if s.NextBadge != nil {
		left := s.NextBadge.Threshold - s.Streak
		fmt.Fprintf(w, "Next:    %s in %d %s\n", s.NextBadge.Label, left, plural(left, "day", "days"))
	}
	_, err := fmt.Fprintf(w, "Points:  %d today, %d total\n", s.DayPoints, s.TotalPoints)
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
