// Package util provides small helpers shared across mockapi packages.
package util
