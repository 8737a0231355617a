// Package id is the single source of identifiers for records and generated data.
package id
