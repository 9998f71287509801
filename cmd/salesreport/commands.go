package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"salesdash/internal/config"
	"salesdash/internal/exporter"
	"salesdash/internal/infrastructure"
	"salesdash/internal/validation"
)

var commands = []subcommands.Command{
	&summaryCmd{},
	&exportCmd{},
	&optionsCmd{},
	&checkCmd{},
}

type summaryCmd struct {
	sel     selectionFlags
	json    bool
	verbose bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print the KPIs and chart data of a selection" }
func (*summaryCmd) Usage() string {
	return `salesreport summary [-product <p>]... [-city <c>]... [-month <m>]... [-json]

  Computes the dashboard of the selection: KPIs, weekly trend, product
  performance, revenue by city and the product by city matrix.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	c.sel.register(f)
	f.BoolVar(&c.json, "json", false, "Print the dashboard as JSON.")
	f.BoolVar(&c.verbose, "v", false, "Log to stderr at debug level.")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sel, err := c.sel.selection()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	svc, _, _, err := loadService(ctx, c.verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	d, err := svc.Build(ctx, sel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	if err := writeSummary(os.Stdout, d); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	sel     selectionFlags
	format  string
	output  string
	verbose bool
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the filtered rows to a CSV or XLSX file" }
func (*exportCmd) Usage() string {
	return `salesreport export [-format csv|xlsx] [-o <file>] [-product <p>]... [-city <c>]... [-month <m>]...

  Writes the cleaned rows of the selection. Without -o the file is created
  in the exports directory with a timestamped name.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.sel.register(f)
	f.StringVar(&c.format, "format", string(exporter.FormatCSV), "Export format (csv, xlsx).")
	f.StringVar(&c.output, "o", "", "Output file. Relative paths resolve against the exports directory.")
	f.BoolVar(&c.verbose, "v", false, "Log to stderr at debug level.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format, err := exporter.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	sel, err := c.sel.selection()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	svc, paths, logger, err := loadService(ctx, c.verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	view, err := svc.View(ctx, sel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fe := exporter.NewFileExporter(paths, logger)
	var path string
	if c.output != "" {
		path, err = fe.ExportTo(ctx, c.output, format, view)
	} else {
		path, err = fe.Export(ctx, format, view, time.Now())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("%d rows written to %s\n", view.Len(), path)
	return subcommands.ExitSuccess
}

type optionsCmd struct {
	verbose bool
}

func (*optionsCmd) Name() string     { return "options" }
func (*optionsCmd) Synopsis() string { return "list the products, cities and months of the dataset" }
func (*optionsCmd) Usage() string {
	return `salesreport options

  Lists the values accepted by -product, -city and -month.
`
}

func (c *optionsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.verbose, "v", false, "Log to stderr at debug level.")
}

func (c *optionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, _, _, err := loadService(ctx, c.verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	opts, err := svc.Options(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	writeOptions(os.Stdout, opts)
	return subcommands.ExitSuccess
}

type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "verify the source files and the exports directory" }
func (*checkCmd) Usage() string {
	return `salesreport check

  Reports every configured source that cannot be read and whether the
  exports directory is writable. Nothing is parsed.
`
}

func (*checkCmd) SetFlags(*flag.FlagSet) {}

func (*checkCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	paths, err := cfg.ResolvePaths()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	v := validation.NewFileValidator(infrastructure.NewLoggerWithWriter(os.Stderr, "text", "warn"))
	if runCheck(os.Stdout, v, paths.SourcePaths(cfg.Dataset.SourceFiles), paths.ExportsDir) {
		return subcommands.ExitSuccess
	}
	return subcommands.ExitFailure
}
