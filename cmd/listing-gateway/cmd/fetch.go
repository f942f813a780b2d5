package cmd

import (
	"github.com/spf13/cobra"
)

func fetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <marketplace> <id>",
		Short: "Fetch a single listing by marketplace ID",
		Example: `  listing-gateway fetch amazon B08XYZ1234
  listing-gateway fetch amazon B08XYZ1234 --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			listing, err := newClient().GetListing(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(listing)
			}
			return printListingDetail(listing)
		},
	}
}
