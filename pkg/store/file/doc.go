// Package file provides a file-backed store. Everything is held in memory
// and snapshotted to data.json in the data directory after writes.
package file
