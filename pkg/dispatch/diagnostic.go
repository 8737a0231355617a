package dispatch

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/getmockd/mockapi/internal/matching"
	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/httputil"
)

// Diagnostic is the body of a 404 for a path nothing serves.
type Diagnostic struct {
	Error              string   `json:"error"`
	Hint               string   `json:"hint"`
	AvailableResources []string `json:"availableResources"`
	AvailableAPIs      []string `json:"availableApis"`
}

// NewDiagnostic describes what is available instead of method and path.
func NewDiagnostic(method, path string, routes []*catalog.RouteDefinition, resources []*catalog.ResourceDefinition) *Diagnostic {
	d := &Diagnostic{
		Error:              fmt.Sprintf("No custom API or resource matches %s %s", method, path),
		AvailableResources: make([]string, 0, len(resources)),
		AvailableAPIs:      make([]string, 0, len(routes)),
	}
	for _, res := range resources {
		if res != nil {
			d.AvailableResources = append(d.AvailableResources, res.Name)
		}
	}
	for _, r := range routes {
		if r != nil {
			d.AvailableAPIs = append(d.AvailableAPIs, r.Signature())
		}
	}

	switch {
	case len(matching.Segments(path)) > 1:
		d.Hint = fmt.Sprintf("Paths with several segments are served by Custom APIs. Create a Custom API for %s %s.", method, path)
	case len(d.AvailableResources) == 0:
		d.Hint = "No resources are defined yet. Define a resource or a Custom API for this path."
	default:
		d.Hint = "Available resources: " + strings.Join(d.AvailableResources, ", ")
	}
	return d
}

func writeDiagnostic(w http.ResponseWriter, method, path string, routes []*catalog.RouteDefinition, resources []*catalog.ResourceDefinition) int {
	httputil.WriteJSON(w, http.StatusNotFound, NewDiagnostic(method, path, routes, resources))
	return http.StatusNotFound
}
