// Package dispatch serves every request under the mock API mount point.
//
// For each request the Handler tries, in order:
//
//  1. a custom route whose method matches and whose path template matches
//     (literal templates first, then catalog order). The route's fixed body is
//     returned, or one of its two conditional branches.
//  2. the generic resource endpoints, when the first path segment names a
//     resource: list with the query pipeline, create, and item
//     get/update/delete.
//  3. a 404 diagnostic listing what is available.
//
// The Handler holds no state between requests. Record collections are read,
// changed in memory and written back whole; concurrent writers to the same
// resource can lose updates unless WithSerializedWrites is enabled.
package dispatch
