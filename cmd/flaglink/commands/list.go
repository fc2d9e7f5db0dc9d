package commands

import (
	"fmt"

	"github.com/flaglink/flaglink/internal/cli"
	"github.com/flaglink/flaglink/model"
	"github.com/spf13/cobra"
)

var listOnOnly bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the flags in a data file",
	Long: `List the flags in the data file with their targeting shape.

Examples:
  flaglink list --data flags.json
  flaglink list --data flags.json --format json
  flaglink list --data flags.json --on-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cli.LoadConfig().Resolve(dataFile, userFile, format)

		data, err := cli.LoadDataFile(cfg.DataFile)
		if err != nil {
			return err
		}

		flags := data.SortedFlags()
		if listOnOnly {
			var on []*model.FeatureFlag
			for _, f := range flags {
				if f.On {
					on = append(on, f)
				}
			}
			flags = on
		}

		if quiet {
			return nil
		}
		if len(flags) == 0 {
			fmt.Println("No flags found")
			return nil
		}
		return cli.PrintFlags(flags, cli.OutputFormat(cfg.Format))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listOnOnly, "on-only", false, "Only show flags that are on")
}
