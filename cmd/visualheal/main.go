// Package main provides the entry point for the visual self-healing CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "visualheal",
	Short: "Visual regression detection and self-healing for web UIs",
	Long:  "visualheal renders configured UI surfaces, compares them against baseline screenshots, localizes visual regressions to source lines, and applies verified single-line fixes.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
