package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/icl-sdk/icl-go/pkg/wire"
)

var stdout io.Writer = os.Stdout

// emit prints v as indented JSON under --json, otherwise calls text.
func emit(v any, text func(w io.Writer)) error {
	if flags.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(stdout)
	return nil
}

// printResults prints results as sorted key/value lines.
func printResults(w io.Writer, results wire.Results) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", k, formatValue(results[k]))
	}
	tw.Flush()
}

func formatValue(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

func sortedStrings(s []string) []string {
	slices.Sort(s)
	return s
}
