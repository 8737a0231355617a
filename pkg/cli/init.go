package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/portability"
)

// initFlags describes the starter catalog.
type initFlags struct {
	routeMethod string
	routePath   string
	status      int
	body        string
	resource    string
	count       int
	force       bool
}

func newInitCmd() *cobra.Command {
	f := &initFlags{}
	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Create a starter catalog file",
		Long: `Create a starter catalog file with one custom route and one generated resource.

Without --path or --resource the values are asked for interactively.`,
		Example: `  mockapi init
  mockapi init api.yaml --path /health --body '{"status":"ok"}' --resource users --count 20`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := "catalog.yaml"
			if len(args) == 1 {
				file = args[0]
			}
			if !f.force {
				if _, err := os.Stat(file); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", file)
				}
			}

			if !cmd.Flags().Changed("path") && !cmd.Flags().Changed("resource") {
				if err := f.prompt(); err != nil {
					return err
				}
			}

			c, err := f.catalog()
			if err != nil {
				return err
			}
			asYAML, err := wantYAML("", file)
			if err != nil {
				return err
			}
			data, err := portability.ExportNative(c, asYAML)
			if err != nil {
				return err
			}
			if err := os.WriteFile(file, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", file, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\nRun: mockapi serve %s\n", file, file)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&f.routeMethod, "method", "m", "GET", "Method of the starter route")
	fs.StringVar(&f.routePath, "path", "/health", "Path of the starter route (empty for none)")
	fs.IntVarP(&f.status, "status", "s", 200, "Status code of the starter route")
	fs.StringVarP(&f.body, "body", "b", `{"status": "ok"}`, "JSON response body of the starter route")
	fs.StringVarP(&f.resource, "resource", "r", "users", "Name of the starter resource (empty for none)")
	fs.IntVarP(&f.count, "count", "n", 10, "Records to generate for the starter resource")
	fs.BoolVarP(&f.force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func (f *initFlags) prompt() error {
	status := strconv.Itoa(f.status)
	count := strconv.Itoa(f.count)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What path should the starter route answer?").
				Placeholder("/health").
				Value(&f.routePath),
			huh.NewSelect[string]().
				Title("Which method?").
				Options(
					huh.NewOption("GET", "GET"),
					huh.NewOption("POST", "POST"),
					huh.NewOption("PUT", "PUT"),
					huh.NewOption("PATCH", "PATCH"),
					huh.NewOption("DELETE", "DELETE"),
				).
				Value(&f.routeMethod),
			huh.NewInput().
				Title("What status code should it return?").
				Value(&status).
				Validate(validInt),
			huh.NewText().
				Title("Response Body (JSON)").
				Value(&f.body).
				Validate(validJSON),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Name a resource to generate (leave empty to skip)").
				Placeholder("users").
				Value(&f.resource).
				Validate(func(s string) error {
					if s != "" && !catalog.ValidResourceName(s) {
						return errors.New("use lowercase letters, digits, '-' and '_', starting with a letter")
					}
					return nil
				}),
			huh.NewInput().
				Title("How many records?").
				Value(&count).
				Validate(validInt),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	f.status, _ = strconv.Atoi(status)
	f.count, _ = strconv.Atoi(count)
	return nil
}

func validInt(s string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return errors.New("enter a number")
	}
	return nil
}

func validJSON(s string) error {
	if strings.TrimSpace(s) == "" || json.Valid([]byte(s)) {
		return nil
	}
	return errors.New("enter valid JSON")
}

// catalog builds and validates the starter catalog.
func (f *initFlags) catalog() (*catalog.Catalog, error) {
	c := &catalog.Catalog{}
	if path := strings.TrimSpace(f.routePath); path != "" {
		var body any
		if strings.TrimSpace(f.body) != "" {
			if err := json.Unmarshal([]byte(f.body), &body); err != nil {
				return nil, fmt.Errorf("--body: %w", err)
			}
		}
		c.Routes = append(c.Routes, &catalog.RouteDefinition{
			ID:           catalog.SlugID(f.routeMethod, path),
			Method:       f.routeMethod,
			Path:         path,
			StatusCode:   f.status,
			ResponseBody: body,
		})
	}
	if name := strings.TrimSpace(f.resource); name != "" {
		c.Resources = append(c.Resources, &catalog.ResourceDefinition{
			Name: name,
			Fields: []catalog.FieldSpec{
				{Name: "name", Type: catalog.FieldString, Generator: "fullName", Required: true},
				{Name: "email", Type: catalog.FieldEmail},
				{Name: "active", Type: catalog.FieldBoolean},
			},
		})
		c.Generate = map[string]int{name: f.count}
	}
	c.Normalize()
	if err := catalog.ValidateCatalog(c).Err(); err != nil {
		return nil, fmt.Errorf("invalid starter catalog:\n%w", err)
	}
	return c, nil
}
