package model

const (
	// maxAddressWidth keeps 2^width representable in a uint64
	maxAddressWidth = 63

	maxWordWidth = 64
)

// Geometry holds the size constants of the simulated MMU. Everything else
// (page size, page and frame counts) is derived from these five values.
type Geometry struct {
	// Bit width of a storable value
	WordWidth uint

	// Bits consumed by the in-page offset and by each table level
	OffsetWidth uint

	// Number of table levels between the root table and a data page.
	// Zero means "as many as the virtual address needs".
	TablesDepth uint

	// Width of a virtual address in bits
	VirtualAddressWidth uint

	// Width of a physical address in bits
	PhysicalAddressWidth uint
}

// DefaultGeometry returns a 1M-word virtual space over a 1K-word RAM
// with 16-word pages and four table levels.
func DefaultGeometry() Geometry {
	return Geometry{
		WordWidth:            32,
		OffsetWidth:          4,
		TablesDepth:          4,
		VirtualAddressWidth:  20,
		PhysicalAddressWidth: 10,
	}
}

// Normalized fills in TablesDepth when it was left zero
func (g Geometry) Normalized() Geometry {
	if g.TablesDepth == 0 && g.OffsetWidth > 0 && g.VirtualAddressWidth > g.OffsetWidth {
		pageBits := g.VirtualAddressWidth - g.OffsetWidth
		g.TablesDepth = (pageBits + g.OffsetWidth - 1) / g.OffsetWidth
	}
	return g
}

// Validate checks that the geometry describes an MMU the frame allocator can
// make progress on. It expects a normalized geometry.
func (g Geometry) Validate() error {
	switch {
	case g.WordWidth == 0 || g.WordWidth > maxWordWidth:
		return ErrInvalidGeometry{Field: "WordWidth", Reason: "must be between 1 and 64"}
	case g.OffsetWidth == 0:
		return ErrInvalidGeometry{Field: "OffsetWidth", Reason: "must be positive"}
	case g.TablesDepth == 0:
		return ErrInvalidGeometry{Field: "TablesDepth", Reason: "must be positive"}
	case g.VirtualAddressWidth > maxAddressWidth:
		return ErrInvalidGeometry{Field: "VirtualAddressWidth", Reason: "must be at most 63"}
	case g.PhysicalAddressWidth > maxAddressWidth:
		return ErrInvalidGeometry{Field: "PhysicalAddressWidth", Reason: "must be at most 63"}
	case g.VirtualAddressWidth <= g.OffsetWidth:
		return ErrInvalidGeometry{Field: "VirtualAddressWidth", Reason: "must exceed OffsetWidth"}
	case g.PhysicalAddressWidth <= g.OffsetWidth:
		return ErrInvalidGeometry{Field: "PhysicalAddressWidth", Reason: "must exceed OffsetWidth"}
	case (g.TablesDepth+1)*g.OffsetWidth < g.VirtualAddressWidth:
		return ErrInvalidGeometry{Field: "TablesDepth", Reason: "leaves virtual address bits untranslated"}
	case g.WordWidth < maxWordWidth && g.PhysicalAddressWidth-g.OffsetWidth >= g.WordWidth:
		// the largest frame index must fit in a positive word
		return ErrInvalidGeometry{Field: "WordWidth", Reason: "too narrow to hold a frame index"}
	case g.NumFrames() < uint64(g.TablesDepth)+1:
		return ErrInvalidGeometry{Field: "PhysicalAddressWidth", Reason: "gives fewer frames than TablesDepth+1"}
	}
	return nil
}

// PageSize is the number of words in a frame
func (g Geometry) PageSize() uint64 {
	return 1 << g.OffsetWidth
}

// NumPages is the number of virtual pages
func (g Geometry) NumPages() uint64 {
	return 1 << (g.VirtualAddressWidth - g.OffsetWidth)
}

// NumFrames is the number of physical frames
func (g Geometry) NumFrames() uint64 {
	return 1 << (g.PhysicalAddressWidth - g.OffsetWidth)
}

// RAMSize is the number of words of physical memory
func (g Geometry) RAMSize() uint64 {
	return g.NumFrames() * g.PageSize()
}

// VirtualMemorySize is the number of addressable virtual words
func (g Geometry) VirtualMemorySize() uint64 {
	return 1 << g.VirtualAddressWidth
}

// OffsetMask selects the low OffsetWidth bits of an address
func (g Geometry) OffsetMask() uint64 {
	return g.PageSize() - 1
}
