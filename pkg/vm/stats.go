package vm

// Stats counts what the MMU did since it was created
type Stats struct {
	Reads            uint64 // successful Read calls
	Writes           uint64 // successful Write calls
	RejectedAccesses uint64 // reads and writes outside the virtual address space
	TableMisses      uint64 // zero entries hit while walking, at any level
	PageFaults       uint64 // misses at the last level, i.e. data page not resident
	EmptyTableReuses uint64 // frames obtained by detaching an empty table
	UnusedFrameUses  uint64 // frames obtained from past the highest frame in use
	Evictions        uint64 // pages moved from RAM to swap
	SwapRestores     uint64 // page faults served from swap
}

func (s *Stats) recordAllocation(source frameSource) {
	switch source {
	case fromEmptyTable:
		s.EmptyTableReuses++
	case fromUnusedFrame:
		s.UnusedFrameUses++
	case fromEviction:
		s.Evictions++
	}
}
