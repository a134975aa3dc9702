// Command spendlens-cli analyses an expense CSV without a server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `spendlens-cli analyses personal expense tables.

Usage:
  spendlens-cli analyze -file data.csv [-clusters 3] [-seed 42] [-indexing sequential] [-json] [-dump]
  spendlens-cli report -file data.csv -format pdf|csv|xlsx [-out path]
  spendlens-cli import-sheet [-range 'Expenses!A:D'] [-out data.csv]
  spendlens-cli help

The input must have Date, Category and Amount columns. Description is optional.
`

// errUsage is returned for bad invocations; the usage text is printed.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "analyze":
		err = runAnalyze(args[1:], stdout, stderr)
	case "report":
		err = runReport(args[1:], stdout, stderr)
	case "import-sheet":
		err = runImportSheet(ctx, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprint(stderr, usage)
		return 2
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
}
