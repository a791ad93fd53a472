// Package proofcache implements a content-addressed proof cache: key =
// commitment digest, value = a Timestamp fragment. Puts are idempotent,
// since uploads to the same key are always content-identical.
package proofcache

import "github.com/opentimestamps/opentimestamps-client/internal/ots"

// Cache is the proof cache capability interface.
type Cache interface {
	// Get returns the cached fragment for commitment, if any.
	Get(commitment [32]byte) (*ots.Timestamp, bool, error)

	// Put inserts or merges a fragment for commitment. Put is idempotent:
	// putting an already-cached fragment changes nothing.
	Put(commitment [32]byte, fragment *ots.Timestamp) error

	// Close releases any held resources.
	Close() error
}
