package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/cli/internal/output"
)

// ValidateOutput is the --json form of a validate run.
type ValidateOutput struct {
	Valid     bool     `json:"valid"`
	Routes    int      `json:"routes"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
}

// errInvalidCatalog is returned after the problems have been printed.
var errInvalidCatalog = errors.New("catalog is invalid")

func newValidateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <catalog files or globs...>",
		Short: "Validate catalog files without starting a server",
		Long: `Validate catalog files without starting a server.

This command checks:
  - YAML and JSON syntax
  - Route methods, paths, status codes, conditions and request body schemas
  - Resource names and field types
  - Duplicate ids and names
  - Dangling dependentApiId and relationTo references (warnings)`,
		Example: `  mockapi validate catalog.yaml
  mockapi validate 'catalogs/**/*.yaml' --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			c, err := loadCatalog(args)
			if err != nil {
				return err
			}
			rep := catalog.ValidateCatalog(c)

			out := ValidateOutput{
				Valid:     len(rep.Errors) == 0,
				Routes:    len(c.Routes),
				Resources: len(c.Resources),
				Errors:    []string{},
				Warnings:  rep.Warnings,
			}
			if out.Warnings == nil {
				out.Warnings = []string{}
			}
			for _, e := range rep.Errors {
				out.Errors = append(out.Errors, e.Error())
			}

			if g.jsonOutput {
				if err := output.JSON(w, out); err != nil {
					return err
				}
			} else {
				for _, e := range out.Errors {
					fmt.Fprintf(w, "error: %s\n", e)
				}
				for _, warn := range out.Warnings {
					output.Warn(w, "%s", warn)
				}
				if out.Valid {
					printCatalogTable(w, c)
					fmt.Fprintf(w, "Catalog is valid: %d routes, %d resources\n", out.Routes, out.Resources)
				}
			}
			if !out.Valid {
				return errInvalidCatalog
			}
			return nil
		},
	}
}

func printCatalogTable(w io.Writer, c *catalog.Catalog) {
	if len(c.Routes) == 0 && len(c.Resources) == 0 {
		return
	}
	tw := output.Table(w)
	fmt.Fprintln(tw, "KIND\tMETHOD\tPATH\tID")
	for _, r := range c.Routes {
		fmt.Fprintf(tw, "route\t%s\t%s\t%s\n", r.Method, r.Path, r.ID)
	}
	for _, d := range c.Resources {
		fields := make([]string, 0, len(d.Fields))
		for _, f := range d.Fields {
			fields = append(fields, f.Name)
		}
		fmt.Fprintf(tw, "resource\t*\t/%s\t%s (%s)\n", d.Name, d.ID, strings.Join(fields, ", "))
	}
	_ = tw.Flush()
}
