package storage

import (
	"fmt"

	"git.canoozie.net/riddling/vmsim/pkg/model"
)

// PhysicalMemory is the simulated RAM: NumFrames frames of PageSize words,
// plus the swap store evicted frames are moved to.
//
// Out-of-range addresses, frame indices or page numbers and evicting a page
// that is already in swap are bugs in the caller, not runtime conditions.
// They panic with the matching model error. Only swap I/O returns errors.
type PhysicalMemory struct {
	geometry model.Geometry
	frames   []model.Frame // allocated on first use
	swap     SwapStore
	logger   model.Logger
}

// NewPhysicalMemory creates the RAM for geometry on top of swap. A nil swap
// gets an in-memory store.
func NewPhysicalMemory(geometry model.Geometry, swap SwapStore, logger model.Logger) *PhysicalMemory {
	if swap == nil {
		swap = NewMemorySwap()
	}
	if logger == nil {
		logger = model.DefaultLoggerInstance
	}
	return &PhysicalMemory{
		geometry: geometry,
		swap:     swap,
		logger:   logger,
	}
}

func (pm *PhysicalMemory) ensureFrames() {
	if pm.frames != nil {
		return
	}
	numFrames := pm.geometry.NumFrames()
	pageSize := pm.geometry.PageSize()
	pm.frames = make([]model.Frame, numFrames)
	for i := range pm.frames {
		pm.frames[i] = model.NewFrame(pageSize)
	}
}

func (pm *PhysicalMemory) locate(addr uint64) (uint64, uint64) {
	if limit := pm.geometry.RAMSize(); addr >= limit {
		panic(model.ErrPhysicalAddressOutOfRange{Address: addr, Limit: limit})
	}
	return addr >> pm.geometry.OffsetWidth, addr & pm.geometry.OffsetMask()
}

func (pm *PhysicalMemory) checkFrame(frame uint64) {
	if numFrames := pm.geometry.NumFrames(); frame >= numFrames {
		panic(model.ErrFrameOutOfRange{Frame: frame, NumFrames: numFrames})
	}
}

func (pm *PhysicalMemory) checkPage(page uint64) {
	if numPages := pm.geometry.NumPages(); page >= numPages {
		panic(model.ErrPageOutOfRange{Page: page, NumPages: numPages})
	}
}

// Read returns the word at a physical address
func (pm *PhysicalMemory) Read(addr uint64) model.Word {
	pm.ensureFrames()
	frame, offset := pm.locate(addr)
	return pm.frames[frame][offset]
}

// Write stores value at a physical address
func (pm *PhysicalMemory) Write(addr uint64, value model.Word) {
	pm.ensureFrames()
	frame, offset := pm.locate(addr)
	pm.frames[frame][offset] = value
}

// Evict copies the content of frame into swap under page. The frame itself
// is left as it was; clearing it is up to the caller.
func (pm *PhysicalMemory) Evict(frame, page uint64) error {
	pm.ensureFrames()
	pm.checkFrame(frame)
	pm.checkPage(page)
	if pm.swap.Contains(page) {
		panic(model.ErrDuplicateSwapEntry{Page: page})
	}

	if err := pm.swap.Store(page, pm.frames[frame]); err != nil {
		return fmt.Errorf("failed to evict frame %d: %w", frame, err)
	}
	if pm.logger.IsLevelEnabled(model.LogLevelDebug) {
		pm.logger.Debug("Evicted page %d from frame %d", page, frame)
	}
	return nil
}

// Restore moves the swapped-out content of page into frame and reports
// whether there was any. A page that was never evicted leaves the frame
// untouched, so the caller must hand in a zero-filled frame.
func (pm *PhysicalMemory) Restore(frame, page uint64) (bool, error) {
	pm.ensureFrames()
	pm.checkFrame(frame)

	content, ok, err := pm.swap.Load(page)
	if err != nil {
		return false, fmt.Errorf("failed to restore page %d: %w", page, err)
	}
	if !ok {
		return false, nil
	}
	if uint64(len(content)) != pm.geometry.PageSize() {
		return false, fmt.Errorf("page %d has %d words in swap: %w", page, len(content), model.ErrSwapCorrupted)
	}

	pm.frames[frame] = content
	if pm.logger.IsLevelEnabled(model.LogLevelDebug) {
		pm.logger.Debug("Restored page %d into frame %d", page, frame)
	}
	return true, nil
}

// InSwap reports whether page currently has swapped-out content
func (pm *PhysicalMemory) InSwap(page uint64) bool {
	return pm.swap.Contains(page)
}

// SwapLen returns the number of pages in swap
func (pm *PhysicalMemory) SwapLen() int {
	return pm.swap.Len()
}

// Frames returns a deep copy of every frame, for diagnostics
func (pm *PhysicalMemory) Frames() []model.Frame {
	pm.ensureFrames()
	frames := make([]model.Frame, len(pm.frames))
	for i, f := range pm.frames {
		frames[i] = f.Clone()
	}
	return frames
}

// SwapSnapshot returns a copy of the swap content, for diagnostics
func (pm *PhysicalMemory) SwapSnapshot() (map[uint64]model.Frame, error) {
	return pm.swap.Snapshot()
}

// Geometry returns the geometry the RAM was sized for
func (pm *PhysicalMemory) Geometry() model.Geometry {
	return pm.geometry
}

// Close releases the swap store
func (pm *PhysicalMemory) Close() error {
	return pm.swap.Close()
}
