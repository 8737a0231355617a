// Package condition decides which branch of a conditional route response is
// served.
//
// Header, query and body conditions read their actual value from the incoming
// request. Dependent conditions call another catalog route through a Caller
// and read the value from its JSON response; when that route's path has
// parameters the request cannot supply, a preliminary call to the path's
// collection prefix is made to discover them. Every failure along the way
// makes the condition false.
package condition
