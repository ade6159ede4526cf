package main

import (
	"github.com/spf13/cobra"

	"github.com/pushchain/push-bridge-core/bridgeCore/constant"
)

var homeDir string

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pbridged",
		Short:         "Push Bridge Coordinator Daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&homeDir, "home", constant.DefaultNodeHome, "Node home directory")

	InitRootCmd(rootCmd) // add subcommands like `start` and `version`

	return rootCmd
}
