// Package config loads the server configuration and catalog files.
//
// A server configuration is YAML or JSON (chosen by file extension) with
// ${VAR} and ${VAR:-default} references expanded before parsing. Values are
// layered: defaults, then the file, then MOCKAPI_* environment variables,
// then command line flags applied by the CLI.
//
// Catalog files hold routes, resources, seed records and generate counts.
// Catalog patterns may use ** to match across directories.
package config
