package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	apexindex "github.com/KamilGolis/Apex-Indexer-LS"
)

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputLocations prints locations as "file:line:col" lines or JSON.
func outputLocations(format string, locs []apexindex.Location) error {
	if format == "json" {
		return outputJSON(locs)
	}
	formatLocationsText(os.Stdout, locs)
	return nil
}

func formatLocationsText(w io.Writer, locs []apexindex.Location) {
	for _, loc := range locs {
		fmt.Fprintf(w, "%s:%d:%d\n", loc.File, loc.Range.Start.Line, loc.Range.Start.Column)
	}
}

// outputDefinitions prints full definition records as aligned columns or JSON.
func outputDefinitions(format string, defs []apexindex.Definition) error {
	if format == "json" {
		return outputJSON(defs)
	}
	formatDefinitionsText(os.Stdout, defs)
	return nil
}

func formatDefinitionsText(w io.Writer, defs []apexindex.Definition) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tLINE")
	for _, d := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", d.Name, d.Kind, d.File, d.Range.Start.Line)
	}
	tw.Flush()
}

// outputStats prints index totals.
func outputStats(format string, stats apexindex.Stats) error {
	if format == "json" {
		return outputJSON(stats)
	}
	fmt.Fprintf(os.Stdout, "Files: %d\nDefinitions: %d\nReferences: %d\n",
		stats.Files, stats.Definitions, stats.References)
	return nil
}
