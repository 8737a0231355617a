// Package record holds the schema-less data model served by resource endpoints.
//
// A Record is an insertion-ordered bag of fields. Values are restricted to the
// shapes produced by JSON decoding: string, float64, bool, nil, []any and
// map[string]any. Normalize folds anything else that arrives from YAML files
// or database drivers into those shapes.
//
// The value helpers (LooseEqual, ToNumber, Render, Compare) give the query
// engine and the condition evaluator one shared, loosely typed notion of
// equality and ordering, so "42" and 42 compare equal in filters and
// conditions alike.
package record
