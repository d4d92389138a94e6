// Command snamp-log is a tool for viewing and analyzing SNAMP registry
// event logs.
//
// Event logs are written by snamp-console when started with -event-log
// (or logging.event_log in its configuration file).
//
// Usage:
//
//	snamp-log <command> [flags] <file.cbor>
//
// Commands:
//
//	view     View log file in human-readable format
//	stats    Show statistics about the log file
//	export   Export log file to JSONL or CSV format
//	filter   Filter log file and write to new file
//
// Examples:
//
//	# View all events
//	snamp-log view events.cbor
//
//	# View attribute access on one resource
//	snamp-log view -resource sensor1 -category access events.cbor
//
//	# Show statistics for notifications only
//	snamp-log stats -category notification events.cbor
//
//	# Keep the events of one resource
//	snamp-log filter -resource sensor1 -o sensor1.cbor events.cbor
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/snamp-platform/snamp-go/cmd/snamp-log/commands"
)

const usage = `snamp-log - SNAMP Registry Event Log Analyzer

Usage:
  snamp-log <command> [flags] <file.cbor>

Commands:
  view     View log file in human-readable format
  stats    Show statistics about the log file
  export   Export log file to JSONL or CSV format
  filter   Filter log file and write to new file

Use "snamp-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "stats":
		runStats(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// viewFlags registers the event selection flags shared by view and stats.
func viewFlags(fs *flag.FlagSet) func() commands.ViewFilter {
	resource := fs.String("resource", "", "Filter by resource name")
	feature := fs.String("feature", "", "Filter by feature (attribute name or notification type)")
	category := fs.String("category", "", "Filter by category (registration, access, notification, error)")
	kind := fs.String("kind", "", "Filter by feature kind (attribute, notification)")

	return func() commands.ViewFilter {
		filter := commands.ViewFilter{Resource: *resource, Feature: *feature}
		if *category != "" {
			c, err := commands.ParseCategoryFlag(*category)
			if err != nil {
				fatal(err)
			}
			filter.Category = &c
		}
		if *kind != "" {
			k, err := commands.ParseKindFlag(*kind)
			if err != nil {
				fatal(err)
			}
			filter.Kind = &k
		}
		return filter
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `snamp-log view - View log file in human-readable format

Usage:
  snamp-log view [flags] <file.cbor>

Flags:
`)
		fs.PrintDefaults()
	}
	filter := viewFlags(fs)

	path := parsePath(fs, args)
	if err := commands.RunView(path, filter(), os.Stdout); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `snamp-log stats - Show statistics about the log file

Usage:
  snamp-log stats [flags] <file.cbor>

Flags:
`)
		fs.PrintDefaults()
	}
	filter := viewFlags(fs)

	path := parsePath(fs, args)
	if err := commands.RunStats(path, filter(), os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `snamp-log export - Export log file to JSONL or CSV format

Usage:
  snamp-log export [flags] <file.cbor>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	path := parsePath(fs, args)
	if err := commands.RunExport(path, *format, *output); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `snamp-log filter - Filter log file and write to new file

Usage:
  snamp-log filter [flags] <file.cbor>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	sessionID := fs.String("session", "", "Filter by session ID")
	registry := fs.String("registry", "", "Filter by registry name")
	resource := fs.String("resource", "", "Filter by resource name")
	feature := fs.String("feature", "", "Filter by feature")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	category := fs.String("category", "", "Filter by category (registration, access, notification, error)")
	kind := fs.String("kind", "", "Filter by feature kind (attribute, notification)")

	path := parsePath(fs, args)
	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	n, err := commands.RunFilter(path, commands.FilterOptions{
		Output:    *output,
		SessionID: *sessionID,
		Registry:  *registry,
		Resource:  *resource,
		Feature:   *feature,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Category:  *category,
		Kind:      *kind,
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
}

// parsePath parses flags and returns the log file argument.
func parsePath(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
