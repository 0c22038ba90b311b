// Package cmd wires the CLI: serve runs the HTTP API, ask answers a
// single question from the terminal.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "save",
	Short: "SAVE - packaged food product validation assistant",
	Long: `SAVE (Simple Autonomous Verification Engine) answers questions about
packaged food products. It validates UPC barcodes, looks products up in
USDA FoodData Central and OpenFoodFacts, searches a local knowledge
base, and falls back to web search.

Run "save serve" to start the HTTP API, or "save ask" for one-off
questions from the terminal.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	// Missing .env is fine; the environment may carry the keys.
	_ = godotenv.Load()
	return rootCmd.Execute()
}
