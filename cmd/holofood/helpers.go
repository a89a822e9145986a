package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/holofood-data/holofood-go/pkg/holofood"
	"github.com/holofood-data/holofood-go/pkg/holofood/client"
	"github.com/holofood-data/holofood-go/pkg/holofood/tables"
)

func newPortal() *holofood.Portal {
	c := client.New(portalURL,
		client.APIToken(apiToken),
		client.Debug(strconv.FormatBool(debug)),
		client.UserAgent("holofood-cli/"+version),
	)

	return holofood.New(c)
}

func parseFilters(pairs []string) (map[string]string, error) {
	filters := map[string]string{}

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("filter %q is not on key=value form", pair)
		}
		filters[key] = value
	}

	return filters, nil
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return os.Stdout, nil
	}
	return os.Create(path)
}

func closeOutput(w io.WriteCloser) {
	if w != os.Stdout {
		w.Close()
	}
}

func writeTable(w io.Writer, t *tables.Table, format string, noHeader bool) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(t.Rows())

	case "csv":
		return t.WriteCSV(w)

	default: // table format
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

		cols := t.Columns()
		if !noHeader {
			fmt.Fprintln(tw, strings.Join(cols, "\t"))
		}

		for _, row := range t.Rows() {
			cells := make([]string, len(cols))
			for i, col := range cols {
				cells[i] = fmt.Sprintf("%v", row[col])
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}

		return tw.Flush()
	}
}

func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

func warnMalformed(malformed []string) {
	if len(malformed) > 0 {
		printInfo("Warning: skipped %d malformed accession(s): %s",
			len(malformed), strings.Join(malformed, ", "))
	}
}
