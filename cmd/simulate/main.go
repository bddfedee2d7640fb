package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meenmo/actus/cmd/simulate/internal/kernelrun"
	"github.com/meenmo/actus/cmd/simulate/internal/report"
	"github.com/meenmo/actus/cmd/simulate/internal/run"
)

func main() {
	os.Exit(runCommand(os.Args[1:], os.Stdout, os.Stderr))
}

func runCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "run":
		return run.Run(args[1:], stdout, stderr)
	case "kernel":
		return kernelrun.Run(args[1:], stdout, stderr)
	case "report":
		return report.Run(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: simulate <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run     Event-driven simulation, JSON output")
	fmt.Fprintln(w, "  kernel  Array-mode PAM batch, JSON output")
	fmt.Fprintln(w, "  report  Cash-flow report, CSV output")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `simulate <command> -h` for command-specific help.")
}
