package client

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/filedrop-io/courier/internal/config"
	"github.com/filedrop-io/courier/internal/runtime"
	logpkg "github.com/filedrop-io/courier/pkg/log"
)

// NewRoot constructs the root Cobra command for the courier client.
func NewRoot(logger logpkg.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "courier",
		Short: "File-drop message exchange CLI",
		Long:  "Courier exchanges messages through a shared directory: no server, no database, just files.",
	}
	root.PersistentFlags().String("root", "", "Shared exchange directory (default: COURIER_ROOT or OS data dir)")
	root.PersistentFlags().String("config", "", "Config file (JSON)")
	root.PersistentFlags().String("user", "", "Sender identity (default: COURIER_USER)")

	root.AddCommand(newInitCommand(logger))
	root.AddCommand(newRoomsCommand(logger))
	root.AddCommand(newPostCommand(logger))
	root.AddCommand(newTailCommand(logger))
	root.AddCommand(newPresenceCommand(logger))
	root.AddCommand(newCompactCommand(logger))
	return root
}

// loadConfig resolves config file, env overlay, and persistent flags into
// one Config. Flags win over env, env wins over file.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)
	if v, _ := cmd.Flags().GetString("root"); v != "" {
		cfg.Root = v
	}
	if v, _ := cmd.Flags().GetString("user"); v != "" {
		cfg.User = v
	}
	if cfg.Root == "" {
		cfg.Root = cfgpkg.DefaultRoot()
	}
	return cfg, nil
}

// openRuntime loads config and opens the shared root.
func openRuntime(cmd *cobra.Command, logger logpkg.Logger) (*runtime.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	rt, err := runtime.Open(runtime.Options{Root: cfg.Root, Config: cfg, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("open exchange root (did you run `courier init`?): %w", err)
	}
	return rt, nil
}

// requireUser resolves the sender identity or fails with guidance.
func requireUser(cfg cfgpkg.Config) (string, error) {
	if cfg.User != "" {
		return cfg.User, nil
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host, nil
	}
	return "", fmt.Errorf("no sender identity; set --user or COURIER_USER")
}

func newInitCommand(logger logpkg.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Provision a new exchange root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := runtime.Init(cfg.Root); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "initialized exchange at", cfg.Root)
			return nil
		},
	}
}
