package commands

import (
	"github.com/spf13/cobra"
	"github.com/vsariola/sampler/bank"
)

var describeCmd = &cobra.Command{
	Use:   "describe <instrument>",
	Short: "Load an instrument and print its samples and zones",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := bank.Open(args[0], logger)
		if err != nil {
			return err
		}
		r, err := reporter()
		if err != nil {
			return err
		}
		return r.Bank(cmd.OutOrStdout(), b)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
