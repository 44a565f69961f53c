package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the modclash command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modclash",
		Short: "Find files that more than one RDR2 LML mod replaces",
		Long: `modclash scans a Red Dead Redemption 2 Lenny's Mod Loader directory and
reports every relative path that two or more mods provide. Conflicts are
ranked by severity, can be excluded, and any two copies can be compared
line by line.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewScanCommand())
	rootCmd.AddCommand(NewDiffCommand())
	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewExcludeCommand())
	rootCmd.AddCommand(NewBackupCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
