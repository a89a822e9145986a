package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <entity-type> <accession>...",
	Short: "Fetch records by accession",
	Long: `Fetch the named records and print them as relational tables, one per
entity type, with child records linked back through foreign key columns.

With --flat the tables are joined into a single wide table where
one-to-many relations become list valued columns. Malformed accessions
are skipped with a warning while the rest are still fetched.`,
	Example: `  holofood fetch samples SAMEA112905287 SAMEA112905288
  holofood fetch animals SAMEA112904813 --flat --format csv
  holofood fetch metabolights-studies MTBLS6988 --format json`,
	Args: cobra.MinimumNArgs(2),
	RunE: runFetch,
}

var (
	fetchFlat     bool
	fetchFormat   string
	fetchOutput   string
	fetchNoHeader bool
)

func init() {
	fetchCmd.Flags().BoolVar(&fetchFlat, "flat", false, "Join all tables into one wide table")
	fetchCmd.Flags().StringVarP(&fetchFormat, "format", "f", "table", "Output format (table|csv|json)")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Save results to file instead of stdout")
	fetchCmd.Flags().BoolVar(&fetchNoHeader, "no-header", false, "Omit header in table/csv output")
}

func runFetch(cmd *cobra.Command, args []string) error {
	entityType := args[0]
	accessions := args[1:]

	portal := newPortal()

	out, err := openOutput(fetchOutput)
	if err != nil {
		return err
	}
	defer closeOutput(out)

	if fetchFlat {
		wide, malformed, err := portal.FetchFlattened(cmd.Context(), entityType, accessions)
		if err != nil {
			return err
		}

		if malformed != nil {
			warnMalformed(malformed.Invalid)
		}

		return writeTable(out, wide, fetchFormat, fetchNoHeader)
	}

	result, err := portal.FetchByAccession(cmd.Context(), entityType, accessions)
	if err != nil {
		return err
	}

	if result.Malformed != nil {
		warnMalformed(result.Malformed.Invalid)
	}

	if fetchFormat == "json" {
		rendered := map[string]any{}
		for _, name := range result.Tables.Names() {
			t, _ := result.Tables.Get(name)
			rendered[name] = t.Rows()
		}

		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rendered)
	}

	for _, name := range result.Tables.Names() {
		t, _ := result.Tables.Get(name)
		if t.Len() == 0 {
			continue
		}

		if !fetchNoHeader {
			fmt.Fprintf(out, "# %s\n", name)
		}

		if err := writeTable(out, t, fetchFormat, fetchNoHeader); err != nil {
			return err
		}

		fmt.Fprintln(out)
	}

	return nil
}
