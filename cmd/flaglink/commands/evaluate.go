package commands

import (
	"fmt"

	"github.com/flaglink/flaglink/engine"
	"github.com/flaglink/flaglink/internal/cli"
	"github.com/flaglink/flaglink/model"
	"github.com/spf13/cobra"
)

var evaluateUserKey string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <flag-key>",
	Short: "Evaluate a flag for a user",
	Long: `Evaluate a single flag from the data file for a user and print the
value, variation index and reason, along with any prerequisite
evaluations observed on the way.

The user comes from --user (a JSON file) or --user-key (a bare key).

Examples:
  flaglink evaluate my-flag --data flags.json --user user.json
  flaglink evaluate my-flag --data flags.json --user-key user-123 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flagKey := args[0]
		cfg := cli.LoadConfig().Resolve(dataFile, userFile, format)

		data, err := cli.LoadDataFile(cfg.DataFile)
		if err != nil {
			return err
		}
		user, err := resolveUser(cfg)
		if err != nil {
			return err
		}

		flag := data.GetFlag(flagKey)
		if flag == nil {
			return fmt.Errorf("flag %q not found in %s", flagKey, cfg.DataFile)
		}

		recorder := &engine.PrerequisiteEventRecorder{}
		evaluator := engine.NewEvaluator(data, data)
		result := evaluator.Evaluate(flag, user, recorder)

		if quiet {
			return nil
		}
		eval := cli.Evaluation{FlagKey: flagKey, Result: result}
		for _, event := range recorder.Events {
			eval.Prerequisites = append(eval.Prerequisites, cli.PrerequisiteEvaluation{
				FlagKey: event.Flag.Key,
				Result:  event.Result,
			})
		}
		return cli.PrintEvaluation(eval, cli.OutputFormat(cfg.Format))
	},
}

// resolveUser picks the evaluation user: --user-key wins, then the user
// file from flags or environment.
func resolveUser(cfg cli.Config) (*model.User, error) {
	if evaluateUserKey != "" {
		return model.NewUser(evaluateUserKey), nil
	}
	if cfg.UserFile != "" {
		return cli.LoadUserFile(cfg.UserFile)
	}
	return nil, fmt.Errorf("no user specified: pass --user <file> or --user-key <key>")
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateUserKey, "user-key", "", "Evaluate for a user with only a key")
}
