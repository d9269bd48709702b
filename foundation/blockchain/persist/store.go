// Package persist implements the line-delimited JSON store the
// service-node registry uses to survive a restart, matching the host
// chain's existing database.JSONStorage convention for the append-only
// blockchain file rather than a bespoke binary encoding.
package persist

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/ardanlabs/blockchain/foundation/blockchain/servicenode"
)

// Store appends registry snapshots to a file, one JSON record per line,
// and reloads the most recent one on startup. Every write is a full
// snapshot rather than a delta, so recovery only ever needs the last
// line; older lines stay on disk as history rather than being
// compacted, mirroring database.JSONStorage's append-only file.
type Store struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewStore opens path for append, creating it if it does not exist.
func NewStore(path string) (*Store, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_RDWR, 0600)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if errors.Is(err, fs.ErrNotExist) {
		file, err = os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
		if err != nil {
			return nil, err
		}
	}

	return &Store{path: path, file: file}, nil
}

// Write appends snap to the store as a new line.
func (s *Store) Write(snap servicenode.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	_, err = s.file.Write(append(data, '\n'))
	return err
}

// Load scans the store for its last written snapshot. ok is false if
// the store is empty, meaning the registry should start from genesis.
func (s *Store) Load() (snap servicenode.Snapshot, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Seek(0, 0); err != nil {
		return servicenode.Snapshot{}, false, err
	}

	scanner := bufio.NewScanner(s.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var last []byte
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		last = append([]byte{}, line...)
	}
	if err := scanner.Err(); err != nil {
		return servicenode.Snapshot{}, false, err
	}

	if last == nil {
		return servicenode.Snapshot{}, false, nil
	}

	if err := json.Unmarshal(last, &snap); err != nil {
		return servicenode.Snapshot{}, false, err
	}

	return snap, true, nil
}

// Reset truncates the store, discarding every snapshot ever written.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.file.Close()

	if err := os.Remove(s.path); err != nil {
		return err
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	s.file = file

	return nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.file.Close()
}
