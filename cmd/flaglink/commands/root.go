package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dataFile string
	userFile string
	format   string
	quiet    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "flaglink",
	Short: "Offline evaluation tool for feature flag data files",
	Long: `Flaglink evaluates feature flags from a local data file snapshot, using
the same deterministic engine the server-side SDK ships with.

The data file holds flags and segments in their canonical JSON form:
  {"flags": {"my-flag": {...}}, "segments": {"my-segment": {...}}}

Examples:
  flaglink list --data flags.json
  flaglink evaluate my-flag --data flags.json --user user.json
  flaglink evaluate my-flag --data flags.json --user-key user-123
  flaglink bucket my-flag --data flags.json --user-key user-123`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "Path to the flag data file (default from FLAGLINK_DATA_FILE)")
	rootCmd.PersistentFlags().StringVar(&userFile, "user", "", "Path to a user JSON file (default from FLAGLINK_USER_FILE)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
}
