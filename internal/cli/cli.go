// Package cli implements the btr command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	goflags "github.com/jessevdk/go-flags"
)

// buildParser constructs the go-flags parser over a fresh Options value.
func buildParser() (*goflags.Parser, *Options) {
	var opts Options

	parser := goflags.NewParser(&opts, goflags.HelpFlag|goflags.PassDoubleDash)
	parser.Name = "btr"
	parser.Usage = "-b BROWSER [OPTIONS]"
	parser.LongDescription = "Browser Trace Reconciler: reports cookies whose creation is not " +
		"corroborated by any browsing history within a time window, or dumps a browser's " +
		"history or cookie store."

	return parser, &opts
}

// Run is the main entry point for the btr CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, os.Args[1:], os.Stdout, os.Stderr)
}

// RunWithArgs parses args and runs one analysis, writing results to stdout
// and diagnostics to stderr. A fatal error is printed to stderr and returned.
func RunWithArgs(version string, args []string, stdout, stderr io.Writer) error {
	// Handle --version before the parser so that it works without -b.
	for _, arg := range args {
		if arg == "--version" {
			fmt.Fprintf(stdout, "btr %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, opts := buildParser()
	rest, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			fmt.Fprintln(stdout, flagsErr.Message)
			return nil
		}
		return fail(stderr, err)
	}
	if len(rest) > 0 {
		return fail(stderr, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " ")))
	}

	r := &runner{
		opts:      opts,
		windowSet: given(parser, "window"),
		stdout:    stdout,
		stderr:    stderr,
	}
	if err := r.run(); err != nil {
		return fail(stderr, err)
	}
	return nil
}

// given reports whether the option named long was passed on the command
// line. go-flags also marks an option as set when its default tag applied.
func given(parser *goflags.Parser, long string) bool {
	o := parser.FindOptionByLongName(long)
	return o != nil && o.IsSet() && !o.IsSetDefault()
}

func fail(stderr io.Writer, err error) error {
	fmt.Fprintf(stderr, "btr: %v\n", err)
	return err
}
