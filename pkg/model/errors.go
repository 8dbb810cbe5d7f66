package model

import (
	"errors"
	"fmt"
)

var (
	// ErrSwapCorrupted is returned when a swap record fails its checksum
	ErrSwapCorrupted = errors.New("swap is corrupted")

	// ErrSwapClosed is returned by operations on a closed swap store
	ErrSwapClosed = errors.New("swap is closed")

	// ErrNoEvictionCandidate means the frame search found neither a free
	// frame nor a mapped page to evict. A validated geometry never gets here.
	ErrNoEvictionCandidate = errors.New("no frame available and no page to evict")
)

// ErrVirtualAddressOutOfRange is returned by reads and writes past the end of
// the virtual address space. It is the only error a correct caller can trigger.
type ErrVirtualAddressOutOfRange struct {
	Address uint64
	Limit   uint64
}

func (e ErrVirtualAddressOutOfRange) Error() string {
	return fmt.Sprintf("virtual address %d out of range (limit %d)", e.Address, e.Limit)
}

// ErrPhysicalAddressOutOfRange is the panic value for a RAM access past the last frame
type ErrPhysicalAddressOutOfRange struct {
	Address uint64
	Limit   uint64
}

func (e ErrPhysicalAddressOutOfRange) Error() string {
	return fmt.Sprintf("physical address %d out of range (limit %d)", e.Address, e.Limit)
}

// ErrFrameOutOfRange is the panic value for a frame index >= NumFrames
type ErrFrameOutOfRange struct {
	Frame     uint64
	NumFrames uint64
}

func (e ErrFrameOutOfRange) Error() string {
	return fmt.Sprintf("frame %d out of range (%d frames)", e.Frame, e.NumFrames)
}

// ErrPageOutOfRange is the panic value for a page number >= NumPages
type ErrPageOutOfRange struct {
	Page     uint64
	NumPages uint64
}

func (e ErrPageOutOfRange) Error() string {
	return fmt.Sprintf("page %d out of range (%d pages)", e.Page, e.NumPages)
}

// ErrDuplicateSwapEntry is raised when a page is evicted while an earlier
// copy of it is still in swap.
type ErrDuplicateSwapEntry struct {
	Page uint64
}

func (e ErrDuplicateSwapEntry) Error() string {
	return fmt.Sprintf("page %d is already in swap", e.Page)
}

// ErrInvalidGeometry is returned when the size constants cannot describe a working MMU
type ErrInvalidGeometry struct {
	Field  string
	Reason string
}

func (e ErrInvalidGeometry) Error() string {
	return fmt.Sprintf("invalid geometry: %s %s", e.Field, e.Reason)
}
