// Package checkpoint implements the append-only height→hash checkpoint
// set: a list of known-good block hashes that bounds how far a chain
// reorganization may reach back.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

// ErrConflict is returned when inserting a hash for a height that
// already has a different hash checkpointed.
var ErrConflict = errors.New("checkpoint: conflicts with an existing checkpoint at this height")

// Set is the append-only height→hash map. Construct it with New; the zero
// value has a nil map and Add on it panics.
type Set struct {
	mu     sync.RWMutex
	hashes map[uint64]string
}

// New constructs an empty checkpoint set.
func New() *Set {
	return &Set{
		hashes: make(map[uint64]string),
	}
}

// Add inserts hash at height. Adding the same (height, hash) pair twice
// is idempotent; adding a different hash at an already-checkpointed
// height fails with ErrConflict.
func (s *Set) Add(height uint64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.hashes[height]; ok {
		if existing != hash {
			return ErrConflict
		}
		return nil
	}

	s.hashes[height] = hash
	return nil
}

// Lookup returns the checkpointed hash for height, if any.
func (s *Set) Lookup(height uint64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hash, ok := s.hashes[height]
	return hash, ok
}

// Len reports the number of checkpointed heights.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.hashes)
}

// CheckBlock passes if height is not checkpointed, or if it is and hash
// matches the checkpointed value.
func (s *Set) CheckBlock(height uint64, hash string) bool {
	checkpointed, ok := s.Lookup(height)
	if !ok {
		return true
	}
	return checkpointed == hash
}

// LastCheckpointAtOrBelow returns the highest checkpointed height that
// is <= chainHeight, and whether one exists.
func (s *Set) LastCheckpointAtOrBelow(chainHeight uint64) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	heights := make([]uint64, 0, len(s.hashes))
	for h := range s.hashes {
		if h <= chainHeight {
			heights = append(heights, h)
		}
	}
	if len(heights) == 0 {
		return 0, false
	}

	sort.Slice(heights, func(i, j int) bool { return heights[i] > heights[j] })
	return heights[0], true
}

// IsAlternativeBlockAllowed reports whether a competing chain that
// diverges at altHeight may replace the current chain of height
// chainHeight: it is allowed only if altHeight is past the last
// checkpoint at or below chainHeight.
func (s *Set) IsAlternativeBlockAllowed(chainHeight, altHeight uint64) bool {
	last, ok := s.LastCheckpointAtOrBelow(chainHeight)
	if !ok {
		return true
	}
	return altHeight > last
}

// =============================================================================

// fileFormat mirrors the on-disk checkpoint file's JSON shape.
type fileFormat struct {
	Hashlines []hashline `json:"hashlines"`
}

type hashline struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

// LoadFile reads a JSON checkpoint file and adds every entry it
// contains. A conflicting entry aborts the load and returns ErrConflict
// wrapped with the offending height.
func (s *Set) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("checkpoint: read file: %w", err)
	}

	var doc fileFormat
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("checkpoint: decode file: %w", err)
	}

	var added int
	for _, line := range doc.Hashlines {
		if err := s.Add(line.Height, line.Hash); err != nil {
			return added, fmt.Errorf("checkpoint: height %d: %w", line.Height, err)
		}
		added++
	}

	return added, nil
}
