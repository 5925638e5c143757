// Package cmd wires the vaultkeeper CLI: the run/validate/list/show cobra
// commands that drive the Scheduler, Persistence Codec, and their shared
// collaborators.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rpienaar/vaultkeeper/internal/color"
)

var (
	verboseFlag bool
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "vaultkeeper",
	Short: "vaultkeeper schedules and runs incremental tape/disk backups",
	Long: `vaultkeeper is an incremental backup orchestrator: it resolves the
monthly/weekly/daily rule for each configured archive, invokes the remote
worker for every target, and rotates the destination's set pool on success.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable development-style console logging")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored terminal output")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Override the configured archive directory")

	rootCmd.AddCommand(RunCommand())
	rootCmd.AddCommand(ValidateCommand())
	rootCmd.AddCommand(ListCommand())
	rootCmd.AddCommand(ShowCommand())
}

func colorFor() color.Colorizer {
	return color.New(noColorFlag)
}

// RootCommand returns the root command for registration in cmd/vaultkeeper.
func RootCommand() *cobra.Command {
	return rootCmd
}
