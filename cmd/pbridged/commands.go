package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pushchain/push-bridge-core/bridgeCore/config"
	"github.com/pushchain/push-bridge-core/bridgeCore/core"
	"github.com/pushchain/push-bridge-core/bridgeCore/logger"
)

// Set at build time with -ldflags "-X main.Version=... -X main.Commit=...".
var (
	Version = "dev"
	Commit  = "unknown"
)

func InitRootCmd(rootCmd *cobra.Command) {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(startCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(oraclesCmd())
	rootCmd.AddCommand(paramsCmd())
	rootCmd.AddCommand(submissionsCmd())
	rootCmd.AddCommand(submitCmd())
	rootCmd.AddCommand(assetsCmd())
	rootCmd.AddCommand(escrowCmd())
	rootCmd.AddCommand(queryCmd())
}

func initCmd() *cobra.Command {
	var (
		admins []string
		port   int
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the node home",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDefaultConfig()
			if err != nil {
				return err
			}
			cfg.NodeHome = homeDir
			if len(admins) > 0 {
				cfg.Admins = admins
			}
			if port > 0 {
				cfg.QueryServerPort = port
			}
			if err := config.Save(cfg, homeDir); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Config written to %s\n", homeDir)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&admins, "admin", nil, "Registry admin address (repeatable)")
	cmd.Flags().IntVar(&port, "port", 0, "Query server port")
	return cmd
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the bridge coordinator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(homeDir)
			if err != nil {
				return err
			}
			if cfg.NodeHome == "" {
				cfg.NodeHome = homeDir
			}
			log := logger.Init(cfg)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			coordinator, err := core.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			return coordinator.Start()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print pbridged version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Name:       %s\n", "pbridged")
			fmt.Printf("Version:    %s\n", Version)
			fmt.Printf("Commit:     %s\n", Commit)
		},
	}
}

// openCoordinator opens the node state for an offline command. The caller
// must Close it.
func openCoordinator(ctx context.Context) (*core.Coordinator, error) {
	cfg, err := config.Load(homeDir)
	if err != nil {
		return nil, err
	}
	if cfg.NodeHome == "" {
		cfg.NodeHome = homeDir
	}
	return core.New(ctx, cfg, logger.Init(cfg))
}
