// Package cli implements the mockapi command line.
//
// Commands:
//   - serve: run the mock server over one or more catalog files
//   - init: write a starter catalog, interactively or from flags
//   - validate: check catalog files and list their routes and resources
//   - openapi: export a catalog as an OpenAPI 3 document
//   - import: convert an OpenAPI document or native catalog to a catalog file
//   - generate: print seeded records for the catalog's resources
//   - version: show build information
//
// Serve settings resolve in order: config file, then MOCKAPI_* environment
// variables, then flags. Commands run in-process; there is no daemon.
package cli
