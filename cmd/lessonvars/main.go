package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬  ┌─┐┌─┐┌─┐┌─┐┌┐┌┬  ┬┌─┐┬─┐┌─┐
  │  ├┤ └─┐└─┐│ ││││└┐┌┘├─┤├┬┘└─┐
  ┴─┘└─┘└─┘└─┘└─┘┘└┘ └┘ ┴ ┴┴└─└─┘
`

// errReported is returned by commands that already printed their error.
var errReported = stderrors.New("error already reported")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !stderrors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lessonvars",
		Short: "Shared variables for interactive lesson pages",
		Long: `lessonvars hosts the shared variables of an interactive lesson.

Widgets on a lesson page read and write named variables; every
widget bound to a name sees every write to it. Features include:

  • Declarations in YAML, from a file or S3
  • Live widgets over WebSocket
  • A small REST API for reading and writing variables
  • Declaration reload while editing a lesson`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		initCmd(),
		serveCmd(),
		varsCmd(),
		checkCmd(),
		versionCmd(),
	)

	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
