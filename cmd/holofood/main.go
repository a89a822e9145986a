package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// Global flags
var (
	portalURL string
	apiToken  string
	quiet     bool
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:   "holofood",
	Short: "HoloFood data portal client",
	Long: `holofood retrieves animal, sample and analysis metadata from the
HoloFood data portal and reshapes the nested API payloads into flat
relational tables suitable for downstream analysis.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	Example: `  # Search salmon animals
  holofood search animals --filter system=salmon --max-hits 100

  # Fetch samples by accession as CSV
  holofood fetch samples SAMEA112905287 SAMEA112905288 --format csv

  # Assemble a full sample result grouped by sample type
  holofood result SAMEA112905287 SAMEA112905288`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&portalURL, "portal-url", "https://www.holofooddata.org", "Base URL of the data portal")
	rootCmd.PersistentFlags().StringVar(&apiToken, "api-token", "", "Bearer token for authenticated portal access")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(resultCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
