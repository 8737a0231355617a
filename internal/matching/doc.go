// Package matching matches request paths against route templates and walks
// parsed JSON documents.
//
// Templates are slash-separated. A segment starting with ':' binds the
// corresponding request segment to that name; every other segment must match
// literally, and the segment counts must be equal:
//
//	/users/:id         matches /users/42          with {id: "42"}
//	/users/:id         does not match /users/42/x
//	/users/:id/orders  matches /users/7/orders    with {id: "7"}
//
// Lookups accept either a dot path ("user.address.city", "items.0.sku") or a
// JSONPath expression rooted at '$'.
package matching
