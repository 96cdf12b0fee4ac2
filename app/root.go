// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "workpermit",
	Short: "workpermit is the Hind Terminals work permit lifecycle service",
	Long: `workpermit issues and tracks work permits (height, hot, electric and
general work) through their approval and close sequences, expires permits
whose validity window has elapsed, and reopens expired permits as fresh
permits linked to their predecessor.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
