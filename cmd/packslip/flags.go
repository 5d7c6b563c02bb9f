package main

import (
	"fmt"

	flag "github.com/spf13/pflag"
)

// cliFlags holds all flags for the packslip command.
type cliFlags struct {
	customer string
	output   string
	config   string
	catalog  string
	workers  int
	poolSize int
	timeout  string
	zip      bool
	list     bool
	verbose  bool
	quiet    bool
	version  bool
}

// parseFlags parses args (excluding the program name) and returns the
// flags plus remaining positional arguments.
func parseFlags(args []string) (*cliFlags, []string, error) {
	f := &cliFlags{}

	fs := flag.NewFlagSet("packslip", flag.ContinueOnError)
	fs.StringVarP(&f.customer, "customer", "c", "", "customer code (e.g. HH_GLOBAL)")
	fs.StringVarP(&f.output, "out", "o", "", "output file path (default: <input>.pdf or .zip)")
	fs.StringVar(&f.config, "config", "", "YAML config file path")
	fs.StringVar(&f.catalog, "catalog", "", "CSV file overriding the InquireEd SKU catalog")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent renders per batch (0 = default)")
	fs.IntVar(&f.poolSize, "pool", 0, "browser page pool size (0 = auto)")
	fs.StringVar(&f.timeout, "timeout", "", "per-slip render timeout (e.g. 30s)")
	fs.BoolVar(&f.zip, "zip", false, "package slips as a ZIP of per-kit PDFs")
	fs.BoolVarP(&f.list, "list", "l", false, "list registered customers and exit")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logging")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: packslip -c <customer> [flags] <input.csv|xlsx>\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
