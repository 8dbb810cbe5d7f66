package storage

import (
	"git.canoozie.net/riddling/vmsim/pkg/model"
)

// SwapStore is the secondary store holding the content of evicted pages.
// A page number is present at most once; Load removes what it returns.
type SwapStore interface {
	// Store saves a copy of frame under page. It returns
	// model.ErrDuplicateSwapEntry if page is already present.
	Store(page uint64, frame model.Frame) error

	// Load removes the entry for page and returns it. ok is false when the
	// page has never been evicted.
	Load(page uint64) (frame model.Frame, ok bool, err error)

	// Contains reports whether page currently has an entry
	Contains(page uint64) bool

	// Len returns the number of pages in swap
	Len() int

	// Snapshot returns a copy of every entry, for diagnostics
	Snapshot() (map[uint64]model.Frame, error)

	Close() error
}

// MemorySwap is an unbounded map-backed SwapStore
type MemorySwap struct {
	entries map[uint64]model.Frame
	closed  bool
}

// NewMemorySwap creates an empty in-memory swap store
func NewMemorySwap() *MemorySwap {
	return &MemorySwap{
		entries: make(map[uint64]model.Frame),
	}
}

// Store implements SwapStore
func (s *MemorySwap) Store(page uint64, frame model.Frame) error {
	if s.closed {
		return model.ErrSwapClosed
	}
	if _, exists := s.entries[page]; exists {
		return model.ErrDuplicateSwapEntry{Page: page}
	}
	s.entries[page] = frame.Clone()
	return nil
}

// Load implements SwapStore
func (s *MemorySwap) Load(page uint64) (model.Frame, bool, error) {
	if s.closed {
		return nil, false, model.ErrSwapClosed
	}
	frame, exists := s.entries[page]
	if !exists {
		return nil, false, nil
	}
	delete(s.entries, page)
	return frame, true, nil
}

// Contains implements SwapStore
func (s *MemorySwap) Contains(page uint64) bool {
	_, exists := s.entries[page]
	return exists
}

// Len implements SwapStore
func (s *MemorySwap) Len() int {
	return len(s.entries)
}

// Snapshot implements SwapStore
func (s *MemorySwap) Snapshot() (map[uint64]model.Frame, error) {
	if s.closed {
		return nil, model.ErrSwapClosed
	}
	snapshot := make(map[uint64]model.Frame, len(s.entries))
	for page, frame := range s.entries {
		snapshot[page] = frame.Clone()
	}
	return snapshot, nil
}

// Close implements SwapStore. The entries are dropped.
func (s *MemorySwap) Close() error {
	s.closed = true
	s.entries = nil
	return nil
}
