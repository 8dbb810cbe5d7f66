package vm

import (
	"fmt"

	"git.canoozie.net/riddling/vmsim/pkg/model"
	"git.canoozie.net/riddling/vmsim/pkg/storage"
)

// translator walks the page-table tree for a virtual address, filling in
// missing tables and the data page on the way down.
type translator struct {
	pm       *storage.PhysicalMemory
	finder   *frameFinder
	geometry model.Geometry
	stats    *Stats
	logger   model.Logger
}

// tableIndex returns the slot selected at level for addr. Level 0 takes the
// most significant slice.
func (t *translator) tableIndex(level uint, addr uint64) uint64 {
	shift := (t.geometry.TablesDepth - level) * t.geometry.OffsetWidth
	return (addr >> shift) & t.geometry.OffsetMask()
}

// translate returns the physical address of the word at addr, which must
// already be known to be inside the virtual address space.
func (t *translator) translate(addr uint64) (uint64, error) {
	page := addr >> t.geometry.OffsetWidth
	frame := uint64(0)

	for level := uint(0); level < t.geometry.TablesDepth; level++ {
		entry := frame<<t.geometry.OffsetWidth + t.tableIndex(level, addr)
		next := uint64(t.pm.Read(entry))

		if next == 0 {
			t.stats.TableMisses++

			// frame may be an existing table left empty by an earlier
			// eviction; it must not be reclaimed from under us.
			forbidden := noFrame
			if level > 0 {
				forbidden = frame
			}
			allocated, source, err := t.finder.findFrame(page, forbidden)
			if err != nil {
				return 0, fmt.Errorf("page %d level %d: %w", page, level, err)
			}
			t.stats.recordAllocation(source)
			t.pm.Write(entry, model.Word(allocated))
			next = allocated

			if level == t.geometry.TablesDepth-1 {
				t.stats.PageFaults++
				restored, err := t.pm.Restore(allocated, page)
				if err != nil {
					// leave the page unmapped so its swap copy stays the only one
					t.pm.Write(entry, 0)
					return 0, err
				}
				if restored {
					t.stats.SwapRestores++
				}
				if t.logger.IsLevelEnabled(model.LogLevelDebug) {
					t.logger.Debug("Page fault on page %d: mapped to frame %d, restored from swap: %t", page, allocated, restored)
				}
			}
		}
		frame = next
	}

	return frame<<t.geometry.OffsetWidth + addr&t.geometry.OffsetMask(), nil
}
