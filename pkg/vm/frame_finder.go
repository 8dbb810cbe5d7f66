package vm

import (
	"git.canoozie.net/riddling/vmsim/pkg/model"
	"git.canoozie.net/riddling/vmsim/pkg/storage"
)

// noFrame is the forbidden-frame value meaning "nothing to exclude"
const noFrame = ^uint64(0)

// victim is the best eviction candidate seen so far
type victim struct {
	found       bool
	distance    uint64
	page        uint64
	frame       uint64
	parentEntry uint64 // physical address of the table entry pointing at frame
}

// searchResult is threaded through the tree walk. emptyFrame stays 0 until
// an empty table is found, at which point the walk stops.
type searchResult struct {
	emptyFrame uint64
	maxFrame   uint64
	victim     victim
}

// frameSource tells how findFrame obtained the frame it returned
type frameSource int

const (
	fromEmptyTable frameSource = iota
	fromUnusedFrame
	fromEviction
)

// frameFinder hands out frames for table and page misses. It walks the
// page-table tree looking for an empty table to reclaim, the highest frame
// index in use, and the mapped page farthest (cyclically) from the page
// being loaded.
type frameFinder struct {
	pm       *storage.PhysicalMemory
	geometry model.Geometry
	logger   model.Logger
}

func newFrameFinder(pm *storage.PhysicalMemory, logger model.Logger) *frameFinder {
	return &frameFinder{
		pm:       pm,
		geometry: pm.Geometry(),
		logger:   logger,
	}
}

// cyclicDistance is min(|a-b|, n-|a-b|) on a ring of n page numbers
func cyclicDistance(a, b, n uint64) uint64 {
	var diff uint64
	if a > b {
		diff = a - b
	} else {
		diff = b - a
	}
	if n-diff < diff {
		return n - diff
	}
	return diff
}

// walk visits frame at depth, reached through parentEntry, with path holding
// the page-number bits chosen so far. Children are visited in ascending slot
// order, which fixes the tie-break between equally distant pages.
func (f *frameFinder) walk(targetPage, forbidden uint64, depth uint, frame, path, parentEntry uint64, acc searchResult) searchResult {
	if frame > acc.maxFrame {
		acc.maxFrame = frame
	}

	if depth == f.geometry.TablesDepth {
		d := cyclicDistance(targetPage, path, f.geometry.NumPages())
		if !acc.victim.found || d > acc.victim.distance {
			acc.victim = victim{
				found:       true,
				distance:    d,
				page:        path,
				frame:       frame,
				parentEntry: parentEntry,
			}
		}
		return acc
	}

	pageSize := f.geometry.PageSize()
	base := frame << f.geometry.OffsetWidth
	empty := true
	for slot := uint64(0); slot < pageSize; slot++ {
		child := uint64(f.pm.Read(base + slot))
		if child == 0 {
			continue
		}
		empty = false
		acc = f.walk(targetPage, forbidden, depth+1, child, path<<f.geometry.OffsetWidth|slot, base+slot, acc)
		if acc.emptyFrame != 0 {
			return acc
		}
	}

	// The root is never reclaimed, even when it has no children, and neither
	// is the table the current translation is about to write into.
	if empty && depth > 0 && frame != forbidden {
		f.pm.Write(parentEntry, 0)
		acc.emptyFrame = frame
	}
	return acc
}

// findFrame returns a frame ready to be wired in as a table or data page for
// targetPage. forbidden is the table holding the missing entry (the frame
// handed out at the previous level when that level missed too), or noFrame
// for the root. The returned frame is zero-filled and no
// table entry points at it.
func (f *frameFinder) findFrame(targetPage, forbidden uint64) (uint64, frameSource, error) {
	result := f.walk(targetPage, forbidden, 0, 0, 0, 0, searchResult{})

	if result.emptyFrame != 0 {
		if f.logger.IsLevelEnabled(model.LogLevelDebug) {
			f.logger.Debug("Reusing empty table frame %d for page %d", result.emptyFrame, targetPage)
		}
		return result.emptyFrame, fromEmptyTable, nil
	}

	if result.maxFrame+1 < f.geometry.NumFrames() {
		frame := result.maxFrame + 1
		f.clearFrame(frame)
		if f.logger.IsLevelEnabled(model.LogLevelDebug) {
			f.logger.Debug("Allocating unused frame %d for page %d", frame, targetPage)
		}
		return frame, fromUnusedFrame, nil
	}

	if !result.victim.found {
		panic(model.ErrNoEvictionCandidate)
	}

	v := result.victim
	f.pm.Write(v.parentEntry, 0)
	if err := f.pm.Evict(v.frame, v.page); err != nil {
		// put the mapping back so the page is not lost
		f.pm.Write(v.parentEntry, model.Word(v.frame))
		return 0, fromEviction, err
	}
	f.clearFrame(v.frame)
	if f.logger.IsLevelEnabled(model.LogLevelDebug) {
		f.logger.Debug("Evicted page %d (distance %d) from frame %d for page %d", v.page, v.distance, v.frame, targetPage)
	}
	return v.frame, fromEviction, nil
}

func (f *frameFinder) clearFrame(frame uint64) {
	base := frame << f.geometry.OffsetWidth
	for i := uint64(0); i < f.geometry.PageSize(); i++ {
		f.pm.Write(base+i, 0)
	}
}
