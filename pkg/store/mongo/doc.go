// Package mongo stores catalogs and record collections in MongoDB.
//
// Collections:
//   - routes:    one document per route, ordered by seq
//   - resources: one document per resource definition, ordered by seq
//   - records:   one document per resource name holding the whole collection
//
// Whole-collection documents mirror the upsert-the-collection write the
// dispatcher performs, so a single PutRecords is a single ReplaceOne.
package mongo
