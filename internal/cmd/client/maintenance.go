package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/filedrop-io/courier/internal/compactor"
	"github.com/filedrop-io/courier/internal/lockfile"
	maintsvc "github.com/filedrop-io/courier/internal/services/maintenance"
	logpkg "github.com/filedrop-io/courier/pkg/log"
)

// newCompactCommand constructs the `compact` subcommand.
func newCompactCommand(logger logpkg.Logger) *cobra.Command {
	compactCmd := &cobra.Command{
		Use:   "compact",
		Short: "Fold a room's spool into daily logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			room, _ := cmd.Flags().GetString("room")
			dateStr, _ := cmd.Flags().GetString("date")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			rt, err := openRuntime(cmd, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			req := maintsvc.Request{Room: room, Preset: compactor.ThroughYesterday, DryRun: dryRun}
			if dateStr != "" {
				date, err := time.ParseInLocation("2006-01-02", dateStr, rt.Config().Zone())
				if err != nil {
					return fmt.Errorf("invalid --date; expected YYYY-MM-DD: %w", err)
				}
				req.Preset = compactor.ThroughDate
				req.Date = date
			}

			sum, err := maintsvc.New(rt).Compact(cmd.Context(), req)
			if err != nil {
				var held *lockfile.HeldError
				if errors.As(err, &held) {
					return fmt.Errorf("room %s is being compacted by someone else (lock expires %s)",
						room, held.ExpiresAt.Local().Format(time.RFC3339))
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), maintsvc.Describe(sum, dryRun))
			return nil
		},
	}
	compactCmd.Flags().StringP("room", "r", "general", "Room")
	compactCmd.Flags().String("date", "", "Compact through this date inclusive (YYYY-MM-DD)")
	compactCmd.Flags().Bool("dry-run", false, "Report what would be compacted without changing anything")
	return compactCmd
}
