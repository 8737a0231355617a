// Package store defines the persistence collaborators the dispatcher reads
// and writes, and an in-memory implementation of all of them.
//
// Backends:
//   - memory: process-local, the default
//   - file:   JSON snapshot under the XDG data directory (see package file)
//   - mongo:  MongoDB collections (see package mongo)
package store
