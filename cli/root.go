package cli

import (
	"github.com/spf13/cobra"
)

// rootCmd is a root of all commands.
var rootCmd = &cobra.Command{
	Use:   "ecdisk [command] [flags]",
	Short: "ecdisk command-line interface",
	Long:  `ecdisk command-line interface`,
	Run:   rootCmdRun,
}

func rootCmdRun(cmd *cobra.Command, args []string) {
	cmd.Help()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add commands.
	rootCmd.AddCommand(diskdCmd)
}
