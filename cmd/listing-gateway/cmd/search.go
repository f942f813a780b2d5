package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/mclarke/listing-gateway/internal/api/client"
)

func searchCommand() *cobra.Command {
	var (
		minPrice  float64
		maxPrice  float64
		condition string
		sortBy    string
		limit     int
		offset    int
	)

	cmd := &cobra.Command{
		Use:   "search <marketplace> <query>",
		Short: "Search one marketplace for listings",
		Example: `  listing-gateway search ebay "technics sl-1200"
  listing-gateway search amazon "turntable" --condition used --max-price 400 --sort price`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().Search(cmd.Context(), &apiclient.SearchRequest{
				Marketplace: args[0],
				Query:       args[1],
				MinPrice:    minPrice,
				MaxPrice:    maxPrice,
				Condition:   condition,
				Sort:        sortBy,
				Limit:       limit,
				Offset:      offset,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return outputJSON(resp)
			}

			if err := printListingsTable(resp.Listings); err != nil {
				return err
			}
			fmt.Printf("\n%d of %d results", len(resp.Listings), resp.Total)
			if resp.HasMore {
				fmt.Printf(" (more available, use --offset %d)", offset+len(resp.Listings))
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().Float64Var(&minPrice, "min-price", 0, "minimum price")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "maximum price")
	cmd.Flags().StringVar(&condition, "condition", "", "condition filter (new, used, refurbished, vintage, collectible)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort order (price, relevance, newest)")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")

	return cmd
}
