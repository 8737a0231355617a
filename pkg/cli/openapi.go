package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/portability"
)

func newOpenAPICmd() *cobra.Command {
	var (
		outFile   string
		format    string
		title     string
		version   string
		serverURL string
	)
	cmd := &cobra.Command{
		Use:   "openapi <catalog files or globs...>",
		Short: "Export catalogs as an OpenAPI 3 document",
		Example: `  mockapi openapi catalog.yaml -o openapi.yaml
  mockapi openapi 'catalogs/**/*.yaml' --format json --server-url http://localhost:4280/api/v1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(args)
			if err != nil {
				return err
			}
			asYAML, err := wantYAML(format, outFile)
			if err != nil {
				return err
			}
			data, err := portability.ExportOpenAPI(c.Routes, c.Resources, portability.ExportOptions{
				Title:     title,
				Version:   version,
				ServerURL: serverURL,
				AsYAML:    asYAML,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, outFile, data)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&outFile, "output", "o", "", "Output file (default stdout)")
	fs.StringVar(&format, "format", "", "Output encoding: yaml or json (default from --output, else yaml)")
	fs.StringVar(&title, "title", "", "Document title")
	fs.StringVar(&version, "api-version", "", "Document version")
	fs.StringVar(&serverURL, "server-url", "", "Server URL listed in the document")
	return cmd
}

func newImportCmd() *cobra.Command {
	var (
		outFile string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "import <openapi file>",
		Short: "Convert an OpenAPI 3 document into a catalog file",
		Long: `Convert an OpenAPI 3 document into a catalog file.

Every operation becomes a custom route answering with its best success
response: the documented example, or a value synthesized from the schema.`,
		Example: `  mockapi import petstore.yaml -o catalog.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var c *catalog.Catalog
			switch portability.DetectFormat(data, args[0]) {
			case portability.FormatOpenAPI:
				c, err = portability.ImportOpenAPI(data)
			case portability.FormatNative:
				c, err = portability.ImportNative(data)
			default:
				return fmt.Errorf("%s: unrecognized format", args[0])
			}
			if err != nil {
				return err
			}
			asYAML, err := wantYAML(format, outFile)
			if err != nil {
				return err
			}
			out, err := portability.ExportNative(c, asYAML)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d routes\n", len(c.Routes))
			return writeOutput(cmd, outFile, out)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&outFile, "output", "o", "", "Output file (default stdout)")
	fs.StringVar(&format, "format", "", "Output encoding: yaml or json (default from --output, else yaml)")
	return cmd
}

// wantYAML picks the output encoding from --format, then the output file
// extension. YAML is the default.
func wantYAML(format, outFile string) (bool, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return true, nil
	case "json":
		return false, nil
	case "":
		return strings.ToLower(filepath.Ext(outFile)) != ".json", nil
	default:
		return false, fmt.Errorf("unknown format %q: use yaml or json", format)
	}
}

func writeOutput(cmd *cobra.Command, outFile string, data []byte) error {
	if outFile == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(outFile, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outFile, err)
	}
	return nil
}
