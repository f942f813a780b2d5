// Package main is the entry point for listing-gateway.
package main

import (
	"os"

	"github.com/mclarke/listing-gateway/cmd/listing-gateway/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
