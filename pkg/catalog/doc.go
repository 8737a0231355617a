// Package catalog defines the user-authored definitions the dispatcher serves:
// custom routes with fixed or conditional responses, and resource definitions
// backing the generic CRUD and query endpoints.
//
// Definitions are owned by the management layer. The dispatcher only reads
// them, through the interfaces in package store.
package catalog
