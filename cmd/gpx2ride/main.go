package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/brianbtrfld/sram-ebike/internal/gpxconv"

	"github.com/schollz/progressbar/v3"
)

// rides above this many points get a progress bar on stderr
const progressThreshold = 1000

var exit = os.Exit

func main() {
	exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gpx2ride", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", "", "output JSON file (default: input name with .json)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: gpx2ride input.gpx [-o out.json]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	input := fs.Arg(0)
	// allow flags after the input path
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return 2
	}
	if *output == "" {
		*output = strings.TrimSuffix(input, filepath.Ext(input)) + ".json"
	}

	g, err := gpxconv.ParseFile(input)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	var progress gpxconv.Progress
	if total := gpxconv.PointCount(g); total > progressThreshold {
		progress = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("Processing points"),
		)
	}
	doc := gpxconv.Convert(g, progress)
	if progress != nil {
		fmt.Fprintln(stderr)
	}

	if err := gpxconv.Write(doc, *output); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	printSummary(stdout, doc, *output)
	return 0
}

func printSummary(w io.Writer, doc gpxconv.Document, output string) {
	fmt.Fprintf(w, "Successfully processed GPX file into %s:\n", output)
	fmt.Fprintf(w, "Ride name: %s\n", doc.Name)
	fmt.Fprintf(w, "Start time: %s\n", doc.StartTime)
	fmt.Fprintf(w, "End time: %s\n", doc.EndTime)
	if doc.ElapsedTime != nil {
		fmt.Fprintf(w, "Elapsed time: %s\n", *doc.ElapsedTime)
	}
	fmt.Fprintf(w, "Number of waypoints: %d\n", doc.WaypointCount)
	fmt.Fprintf(w, "Total distance: %.2f mi\n", doc.TotalDistanceMi)
	fmt.Fprintf(w, "Total elevation gain: %.1f ft\n", doc.TotalElevationGainFt)
	if doc.AverageSpeedMph != nil {
		fmt.Fprintf(w, "Average speed: %.1f mph\n", *doc.AverageSpeedMph)
	}
	if doc.MaxSpeedMph != nil {
		fmt.Fprintf(w, "Max speed: %.1f mph\n", *doc.MaxSpeedMph)
	}
}
