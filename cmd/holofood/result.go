package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var resultCmd = &cobra.Command{
	Use:   "result <accession>...",
	Short: "Assemble a full sample result",
	Long: `Fetch the named samples and assemble them into one result per sample
type. Columns shared by every sample of a type are reported once as
experiment metadata; the rest stay as per-sample measurements.`,
	Example: `  holofood result SAMEA112905287 SAMEA112905288
  holofood result SAMEA112905287 --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResult,
}

var (
	resultFormat string
	resultOutput string
)

func init() {
	resultCmd.Flags().StringVarP(&resultFormat, "format", "f", "table", "Output format (table|csv|json)")
	resultCmd.Flags().StringVarP(&resultOutput, "output", "o", "", "Save results to file instead of stdout")
}

func runResult(cmd *cobra.Command, args []string) error {
	rc, err := newPortal().AssembleResult(cmd.Context(), args)
	if err != nil {
		return err
	}

	if rc.Malformed != nil {
		warnMalformed(rc.Malformed.Invalid)
	}

	if rc.Empty() {
		printInfo("No samples matched the requested accessions")
	}

	out, err := openOutput(resultOutput)
	if err != nil {
		return err
	}
	defer closeOutput(out)

	if resultFormat == "json" {
		rendered := map[string]any{}
		for _, sampleType := range rc.SampleTypes() {
			exp := rc.Experiments[sampleType]
			rendered[sampleType] = map[string]any{
				"metadata":     exp.Metadata,
				"measurements": exp.Measurements.Rows(),
			}
		}

		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rendered)
	}

	for _, sampleType := range rc.SampleTypes() {
		exp := rc.Experiments[sampleType]

		fmt.Fprintf(out, "# %s\n", sampleType)

		for col, value := range exp.Metadata {
			fmt.Fprintf(out, "## %s: %v\n", col, value)
		}

		if err := writeTable(out, exp.Measurements, resultFormat, false); err != nil {
			return err
		}

		fmt.Fprintln(out)
	}

	return nil
}
