package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/habitrack/internal/backup"
	"github.com/dukerupert/habitrack/internal/config"
)

func backupConfig(cfg config.Config) backup.Config {
	b := cfg.Backup
	return backup.Config{
		S3: backup.S3Config{
			Endpoint:  b.Endpoint,
			Bucket:    b.Bucket,
			Region:    b.Region,
			AccessKey: b.AccessKey,
			SecretKey: b.SecretKey,
		},
		Passphrase:    b.Passphrase,
		Prefix:        b.Prefix,
		Interval:      b.Interval,
		RetentionDays: b.RetentionDays,
	}
}

// NewBackupCommand creates the backup command. Run bare it uploads a backup
// now; list and restore are subcommands.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Upload an encrypted backup now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, mgr, err := openBackup(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := mgr.RunNow(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup %d uploaded: %s (%d days, %d bytes)\n", rec.ID, rec.ObjectKey, rec.DayCount, rec.SizeBytes)
			return nil
		},
	}
	cmd.AddCommand(newBackupListCommand(rootOpts))
	cmd.AddCommand(newBackupRestoreCommand(rootOpts))
	return cmd
}

func openBackup(rootOpts *RootOptions, cmd *cobra.Command) (*app, *backup.Manager, error) {
	a, err := rootOpts.open(cmd.Context(), cmd)
	if err != nil {
		return nil, nil, err
	}
	mgr := backup.NewManager(backupConfig(a.cfg), a.backups, a.tracker, nil, a.logger.With("component", "backup"))
	return a, mgr, nil
}

func newBackupListCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, mgr, err := openBackup(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			backups, err := mgr.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no backups")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tDAYS\tBYTES\tKEY")
			for _, b := range backups {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n", b.ID, b.CreatedAt.Format(time.RFC3339), b.Status, b.DayCount, b.SizeBytes, b.ObjectKey)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of backups to show")
	return cmd
}

func newBackupRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Replace all data with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid backup id %q", args[0])
			}

			a, mgr, err := openBackup(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Replace all data with backup %d? [y/N] ", id))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			if err := mgr.Restore(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored backup %d (%d days)\n", id, a.tracker.Snapshot().Len())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
