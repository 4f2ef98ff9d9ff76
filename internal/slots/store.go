package slots

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// fileVersion is the on-disk format version written by Save.
const fileVersion = 1

// fileFormat is the JSON document stored in the slots file.
type fileFormat struct {
	Version int    `json:"version"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Slots   []Slot `json:"slots"`
}

// Store is a Layout persisted to a file. Every mutation is written back to
// disk before the call returns.
//
// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	path     string
	layout   *Layout
	revision uint64
}

// Open loads the layout stored at path. A missing file yields an empty
// layout; the file is created on the first mutation. A file that exists but
// cannot be decoded is an error.
//
// The slot size is always taken from size. If the file was written with a
// different size the stored corners are kept and a warning is logged.
func Open(path string, size Size) (*Store, error) {
	s := &Store{path: path, layout: NewLayout(size)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slots file: %w", err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode slots file %s: %w", path, err)
	}
	if f.Version > fileVersion {
		return nil, fmt.Errorf("slots file %s has unsupported version %d", path, f.Version)
	}
	if (f.Width != 0 || f.Height != 0) && (f.Width != size.Width || f.Height != size.Height) {
		log.Printf("slots file %s was written for %dx%d slots, using %dx%d", path, f.Width, f.Height, size.Width, size.Height)
	}
	s.layout.Slots = f.Slots
	return s, nil
}

// Path returns the file the store persists to.
func (s *Store) Path() string {
	return s.path
}

// Layout returns a snapshot of the current layout.
func (s *Store) Layout() *Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout.Clone()
}

// Revision increases by one on every mutation. Callers use it to notice
// that the layout changed since they last looked.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Add appends a slot at (x, y) and saves.
func (s *Store) Add(x, y int) (Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.layout.Add(x, y)
	s.revision++
	return slot, s.saveLocked()
}

// RemoveAt removes the first slot strictly containing (x, y) and saves.
// The file is rewritten even when nothing was removed.
func (s *Store) RemoveAt(x, y int) (Slot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, removed := s.layout.RemoveAt(x, y)
	if removed {
		s.revision++
	}
	return slot, removed, s.saveLocked()
}

// Clear removes every slot and saves. It returns how many were removed.
func (s *Store) Clear() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.layout.Slots)
	s.layout.Slots = nil
	s.revision++
	return n, s.saveLocked()
}

// Save writes the layout to disk.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked()
}

// saveLocked writes through a temp file in the same directory and renames
// it over the target so readers never observe a partial file.
func (s *Store) saveLocked() error {
	f := fileFormat{
		Version: fileVersion,
		Width:   s.layout.Size.Width,
		Height:  s.layout.Size.Height,
		Slots:   s.layout.Slots,
	}
	if f.Slots == nil {
		f.Slots = []Slot{}
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode slots: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".slots-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp slots file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write slots file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write slots file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace slots file: %w", err)
	}
	return nil
}
