package main

import (
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <entity-type>",
	Short: "Search portal records",
	Long: `Search one entity type of the portal with optional filters and print
the matching records as a flat summary table. Nested relations are reduced
to presence columns; use fetch to retrieve them in full.`,
	Example: `  holofood search animals --filter system=salmon
  holofood search samples --filter sample_type=histology --max-hits 50
  holofood search genome-catalogues --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	searchFilters  []string
	searchMaxHits  int
	searchFormat   string
	searchOutput   string
	searchNoHeader bool
)

func init() {
	searchCmd.Flags().StringArrayVarP(&searchFilters, "filter", "F", nil, "Filter on key=value, repeatable")
	searchCmd.Flags().IntVar(&searchMaxHits, "max-hits", 0, "Maximum records to retrieve (0 means all)")
	searchCmd.Flags().StringVarP(&searchFormat, "format", "f", "table", "Output format (table|csv|json)")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", "", "Save results to file instead of stdout")
	searchCmd.Flags().BoolVar(&searchNoHeader, "no-header", false, "Omit header in table/csv output")
}

func runSearch(cmd *cobra.Command, args []string) error {
	entityType := args[0]

	filters, err := parseFilters(searchFilters)
	if err != nil {
		return err
	}

	table, err := newPortal().Search(cmd.Context(), entityType, filters, searchMaxHits)
	if err != nil {
		return err
	}

	if table.Len() == 0 {
		printInfo("No results found")
	}

	out, err := openOutput(searchOutput)
	if err != nil {
		return err
	}
	defer closeOutput(out)

	return writeTable(out, table, searchFormat, searchNoHeader)
}
