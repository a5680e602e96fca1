package client

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	presencesvc "github.com/filedrop-io/courier/internal/services/presence"
	logpkg "github.com/filedrop-io/courier/pkg/log"
)

// newPresenceCommand constructs the `presence` command group.
func newPresenceCommand(logger logpkg.Logger) *cobra.Command {
	presenceCmd := &cobra.Command{Use: "presence", Short: "Presence operations"}

	beatCmd := &cobra.Command{
		Use:   "beat",
		Short: "Write a heartbeat (once, or looping with --keep)",
		RunE: func(cmd *cobra.Command, args []string) error {
			keep, _ := cmd.Flags().GetBool("keep")
			rt, err := openRuntime(cmd, logger)
			if err != nil {
				return err
			}
			defer rt.Close()
			user, err := requireUser(rt.Config())
			if err != nil {
				return err
			}
			svc := presencesvc.New(rt)
			if !keep {
				return svc.Beat(cmd.Context(), user)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			keeper := svc.NewKeeper(user, 0)
			keeper.Start()
			fmt.Fprintln(cmd.OutOrStdout(), "heartbeating as", user, "(interrupt to stop)")
			<-ctx.Done()
			keeper.Stop()
			return nil
		},
	}
	beatCmd.Flags().Bool("keep", false, "Keep heartbeating until interrupted")

	whoCmd := &cobra.Command{
		Use:   "who",
		Short: "List users with fresh heartbeats",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd, logger)
			if err != nil {
				return err
			}
			defer rt.Close()
			names, err := presencesvc.New(rt).Who(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nobody here")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	presenceCmd.AddCommand(beatCmd, whoCmd)
	return presenceCmd
}
