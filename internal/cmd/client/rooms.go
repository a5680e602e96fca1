package client

import (
	"fmt"

	"github.com/spf13/cobra"

	logpkg "github.com/filedrop-io/courier/pkg/log"
)

// newRoomsCommand constructs the `rooms` command group.
func newRoomsCommand(logger logpkg.Logger) *cobra.Command {
	roomsCmd := &cobra.Command{Use: "rooms", Short: "Room operations"}

	initCmd := &cobra.Command{
		Use:   "init <room>",
		Short: "Create a room's directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd, logger)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.EnsureRoom(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "room ready:", args[0])
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List existing rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd, logger)
			if err != nil {
				return err
			}
			defer rt.Close()
			rooms, err := rt.Rooms()
			if err != nil {
				return err
			}
			for _, room := range rooms {
				fmt.Fprintln(cmd.OutOrStdout(), room)
			}
			return nil
		},
	}

	roomsCmd.AddCommand(initCmd, listCmd)
	return roomsCmd
}
