package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qrda2qpp <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert QRDA-III XML files to QPP JSON")
	fmt.Fprintln(w, "  report     Render an error report as HTML")
	fmt.Fprintln(w, "  diff       Compare two QPP JSON documents")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'qrda2qpp help <command>' for details on a specific command.")
	fmt.Fprintln(w, "'qrda2qpp file.xml ...' is shorthand for 'qrda2qpp convert file.xml ...'.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qrda2qpp convert <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert QRDA-III XML files to QPP JSON. Each input writes <name>.qpp.json")
	fmt.Fprintln(w, "on success or <name>.err.json when the file is rejected.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    XML file or directory (directories are searched for *.xml)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: next to each input)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --html-report         Also write <name>.err.html for failed files")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Conversion:")
	fmt.Fprintln(w, "      --skip-validation     Encode without running validation")
	fmt.Fprintln(w, "      --skip-defaults       Drop unrecognized templates")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logging:")
	fmt.Fprintln(w, "      --log-level <s>       debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      text, json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show timing and debug logs")
	fmt.Fprintln(w, "      --no-color            Disable colored output")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes:")
	fmt.Fprintln(w, "  0 success, 1 general, 2 usage, 3 I/O, 4 validation errors, 5 not QRDA-III")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  QRDA2QPP_CONFIG, QRDA2QPP_OUTPUT_DIR, QRDA2QPP_WORKERS, QRDA2QPP_LOG_LEVEL,")
	fmt.Fprintln(w, "  QRDA2QPP_LOG_FORMAT, QRDA2QPP_SKIP_VALIDATION, QRDA2QPP_HTML_REPORT,")
	fmt.Fprintln(w, "  QRDA2QPP_NO_COLOR, NO_COLOR")
}

// printReportUsage prints usage for the report command.
func printReportUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qrda2qpp report <file.err.json> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render an error report as a standalone HTML page.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -o, --output <path>       HTML output file (default: stdout)")
}

// printDiffUsage prints usage for the diff command.
func printDiffUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qrda2qpp diff <a> <b> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compare two QPP JSON documents, ignoring key order and formatting.")
	fmt.Fprintln(w, "An .xml argument is converted first and its output or error report compared.")
	fmt.Fprintln(w, "Prints a JSON merge patch and a line diff; exits 4 when they differ.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -q, --quiet               Print nothing, only set the exit code")
	fmt.Fprintln(w, "      --no-color            Disable colored output")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "report":
		printReportUsage(env.Stdout)
	case "diff":
		printDiffUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: qrda2qpp version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: qrda2qpp help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
