package proofcache

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opentimestamps/opentimestamps-client/internal/atomicfile"
	"github.com/opentimestamps/opentimestamps-client/internal/ots"
)

// FileCache implements Cache as one file per commitment digest under Dir,
// filename lowercase-hex of the digest, content raw Timestamp bytes,
// written atomically.
type FileCache struct {
	Dir string
}

// NewFileCache constructs a FileCache rooted at dir.
func NewFileCache(dir string) *FileCache {
	return &FileCache{Dir: dir}
}

func (c *FileCache) path(commitment [32]byte) string {
	return filepath.Join(c.Dir, hex.EncodeToString(commitment[:]))
}

// Get implements Cache.
func (c *FileCache) Get(commitment [32]byte) (*ots.Timestamp, bool, error) {
	raw, err := os.ReadFile(c.path(commitment))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("proofcache: read: %w", err)
	}
	ts, err := ots.DecodeTimestamp(commitment[:], raw)
	if err != nil {
		return nil, false, fmt.Errorf("proofcache: decode cached fragment: %w", err)
	}
	return ts, true, nil
}

// Put implements Cache.
func (c *FileCache) Put(commitment [32]byte, fragment *ots.Timestamp) error {
	existing, found, err := c.Get(commitment)
	if err != nil {
		return err
	}
	merged := fragment
	if found {
		if err := existing.Merge(fragment); err != nil {
			return fmt.Errorf("proofcache: merge: %w", err)
		}
		merged = existing
	}

	encoded, err := ots.EncodeTimestamp(merged)
	if err != nil {
		return fmt.Errorf("proofcache: encode: %w", err)
	}
	return atomicfile.Write(c.path(commitment), encoded, 0600)
}

// Close implements Cache; FileCache holds no resources.
func (c *FileCache) Close() error { return nil }
