// Package portability converts catalogs to and from other formats.
//
// Export formats:
//   - native: the catalog file format (YAML or JSON)
//   - openapi: an OpenAPI 3.0.3 document describing every custom route and
//     the generic collection and item endpoints of every resource
//
// Import formats:
//   - native
//   - openapi: each operation becomes a custom route answering with the
//     operation's example response
//
// Basic export example:
//
//	data, err := portability.ExportOpenAPI(c, portability.ExportOptions{Title: "Shop", AsYAML: true})
package portability
