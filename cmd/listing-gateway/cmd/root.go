// Package cmd implements the CLI commands for listing-gateway.
package cmd

import (
	"github.com/spf13/cobra"

	apiclient "github.com/mclarke/listing-gateway/internal/api/client"
)

var (
	cfgFile    string
	apiURL     string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "listing-gateway",
	Short: "Unified gateway for marketplace listing data",
	Long: "An API gateway that fetches and searches product listings across " +
		"Amazon and eBay, normalizes them into one canonical shape, and " +
		"enforces per-provider rate limits.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().
		StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON instead of tables")

	rootCmd.AddCommand(versionCommand())
	rootCmd.AddCommand(fetchCommand())
	rootCmd.AddCommand(searchCommand())
	rootCmd.AddCommand(resolveCommand())
	rootCmd.AddCommand(quotaCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newClient() *apiclient.Client {
	return apiclient.New(apiURL)
}
