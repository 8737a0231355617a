package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalFlags are persistent flags shared by every subcommand.
type globalFlags struct {
	jsonOutput bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "mockapi",
		Short: "mockapi serves user-defined mock endpoints and generated resources",
		Long: `mockapi serves custom mock routes with conditional responses, and generic
CRUD endpoints over generated resource collections with filtering, search,
sorting, pagination and relation embedding.

Configuration can be provided via flags, environment variables (MOCKAPI_*),
or a configuration file passed with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "Output command results in JSON format")

	root.AddCommand(
		newServeCmd(),
		newInitCmd(),
		newValidateCmd(g),
		newOpenAPICmd(),
		newImportCmd(),
		newGenerateCmd(),
		newVersionCmd(g),
	)
	return root
}

// Main runs the command line and returns the process exit code.
func Main() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if code := Main(); code != 0 {
		os.Exit(code)
	}
}
