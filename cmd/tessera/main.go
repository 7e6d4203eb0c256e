// Package main is the entry point for the tessera command.
//
// tessera loads a file into an editing session, applies soft wrap, folds
// and Lua scripts, and prints the resulting screen grid.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build).
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "tessera",
		Short: "Text layout engine for editors",
		Long: `tessera maps buffer text to screen rows through folds, soft wrap and
block decorations.

Examples:
  tessera layout main.go --wrap 80
  tessera layout main.go --fold 3-10 --fold 20-25
  tessera script main.go outline.lua --command outline`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file path (.toml, .yaml)")
	root.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")

	root.AddCommand(
		newLayoutCmd(&flags),
		newScriptCmd(&flags),
	)
	root.SetErr(os.Stderr)
	root.SetOut(os.Stdout)
	return root
}
