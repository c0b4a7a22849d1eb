package main

import (
	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	quiet   bool
	verbose bool
	noColor bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common         commonFlags
	config         string
	output         string
	workers        int
	skipValidation bool
	skipDefaults   bool
	htmlReport     bool
	logLevel       string
	logFormat      string

	// set records flags given on the command line, so that explicit
	// zero values still override config and environment.
	set map[string]bool
}

// reportFlags holds flags for the report command.
type reportFlags struct {
	common commonFlags
	output string
}

// diffFlags holds flags for the diff command.
type diffFlags struct {
	common commonFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show timing and debug logs")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, env *Environment) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	f := &convertFlags{}

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.skipValidation, "skip-validation", false, "encode without running validation")
	fs.BoolVar(&f.skipDefaults, "skip-defaults", false, "drop unrecognized templates instead of keeping placeholders")
	fs.BoolVar(&f.htmlReport, "html-report", false, "also write <name>.err.html for failed files")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printConvertUsage(env.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, fs.Args(), nil
}

// parseReportFlags parses report command flags and returns positional args.
func parseReportFlags(args []string, env *Environment) (*reportFlags, []string, error) {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	f := &reportFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "HTML output file (default: stdout)")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printReportUsage(env.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseDiffFlags parses diff command flags and returns positional args.
func parseDiffFlags(args []string, env *Environment) (*diffFlags, []string, error) {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	f := &diffFlags{}

	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printDiffUsage(env.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
