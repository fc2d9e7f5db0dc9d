package commands

import (
	"fmt"

	"github.com/flaglink/flaglink/internal/cli"
	"github.com/flaglink/flaglink/model"
	"github.com/flaglink/flaglink/rollout"
	"github.com/spf13/cobra"
)

var (
	bucketUserKey string
	bucketAttr    string
	bucketSeed    int
	bucketSeedSet bool
)

var bucketCmd = &cobra.Command{
	Use:   "bucket <flag-key>",
	Short: "Show a user's rollout bucket value for a flag",
	Long: `Compute the deterministic [0,1) bucket value a user lands on for a
flag's rollouts, using the flag's key and salt from the data file. Useful
for answering "why did this user get that variation".

Examples:
  flaglink bucket my-flag --data flags.json --user-key user-123
  flaglink bucket my-flag --data flags.json --user-key user-123 --seed 61
  flaglink bucket my-flag --data flags.json --user-key user-123 --by country`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flagKey := args[0]
		cfg := cli.LoadConfig().Resolve(dataFile, userFile, format)

		data, err := cli.LoadDataFile(cfg.DataFile)
		if err != nil {
			return err
		}
		flag := data.GetFlag(flagKey)
		if flag == nil {
			return fmt.Errorf("flag %q not found in %s", flagKey, cfg.DataFile)
		}

		var user *model.User
		if bucketUserKey != "" {
			user = model.NewUser(bucketUserKey)
		} else if cfg.UserFile != "" {
			if user, err = cli.LoadUserFile(cfg.UserFile); err != nil {
				return err
			}
		} else {
			return fmt.Errorf("no user specified: pass --user <file> or --user-key <key>")
		}

		var seed *int
		if bucketSeedSet {
			seed = &bucketSeed
		}
		bucket := rollout.Bucket(user, flag.Key, flag.Salt, model.UserAttribute(bucketAttr), seed)

		if !quiet {
			fmt.Printf("%.8f\n", bucket)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bucketCmd)
	bucketCmd.Flags().StringVar(&bucketUserKey, "user-key", "", "Bucket a user with only a key")
	bucketCmd.Flags().StringVar(&bucketAttr, "by", "key", "User attribute to bucket by")
	bucketCmd.Flags().IntVar(&bucketSeed, "seed", 0, "Experiment seed overriding the key+salt prefix")
	bucketCmd.PreRun = func(cmd *cobra.Command, args []string) {
		bucketSeedSet = cmd.Flags().Changed("seed")
	}
}
