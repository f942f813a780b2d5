package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func resolveCommand() *cobra.Command {
	var parseOnly bool

	cmd := &cobra.Command{
		Use:   "resolve <url>",
		Short: "Resolve a marketplace listing URL",
		Long:  "Parses a listing URL, identifies its marketplace and native ID, and fetches the listing.",
		Example: `  listing-gateway resolve "https://www.amazon.com/dp/B08XYZ1234"
  listing-gateway resolve "https://www.ebay.com/itm/123456789" --parse-only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().Resolve(cmd.Context(), args[0], parseOnly)
			if err != nil {
				return err
			}

			if jsonOutput {
				return outputJSON(resp)
			}

			fmt.Printf("%s %s\n", resp.Marketplace, resp.ID)
			if resp.Listing != nil {
				fmt.Println()
				return printListingDetail(resp.Listing)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&parseOnly, "parse-only", false, "parse the URL without fetching the listing")

	return cmd
}
