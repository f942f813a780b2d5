package cmd

import (
	"github.com/spf13/cobra"
)

func quotaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show provider rate limit state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			quotas, err := newClient().GetQuota(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(quotas)
			}
			return printQuotaTable(quotas)
		},
	}
}
