package main

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"
)

// run dispatches a command and returns the process exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	var err error
	switch args[0] {
	case "convert":
		err = runConvertCmd(ctx, args[1:], env)
	case "report":
		err = runReportCmd(ctx, args[1:], env)
	case "diff":
		err = runDiffCmd(ctx, args[1:], env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "qrda2qpp %s\n", Version)
	case "help", "-h", "--help":
		runHelp(args[1:], env)
	default:
		// "qrda2qpp file.xml" is shorthand for "qrda2qpp convert file.xml".
		if isXML(args[0]) {
			err = runConvertCmd(ctx, args, env)
			break
		}
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
		printUsage(env.Stderr)
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(env.Stderr, "error:", err)
	}
	return exitCodeFor(err)
}

func runConvertCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args, env)
	if err != nil {
		return usageErr(err)
	}
	return runConvert(ctx, positional, flags, env)
}

func runReportCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseReportFlags(args, env)
	if err != nil {
		return usageErr(err)
	}
	return runReport(ctx, positional, flags, env)
}

func runDiffCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseDiffFlags(args, env)
	if err != nil {
		return usageErr(err)
	}
	return runDiff(ctx, positional, flags, env)
}

// usageErr tags flag parsing failures so they map to ExitUsage.
func usageErr(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}
