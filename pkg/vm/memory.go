package vm

import (
	"fmt"
	"sync"

	"git.canoozie.net/riddling/vmsim/pkg/model"
	"git.canoozie.net/riddling/vmsim/pkg/storage"
)

// VirtualMemory is a single virtual address space translated through a
// hierarchical page table kept in simulated RAM. Pages that do not fit in
// RAM are evicted to swap and restored on the next access.
//
// Calls are serialized: each Read or Write runs its whole translation under
// one lock.
type VirtualMemory struct {
	mu         sync.Mutex
	geometry   model.Geometry
	pm         *storage.PhysicalMemory
	translator *translator
	stats      Stats
	logger     model.Logger
}

// New creates a VirtualMemory and initializes its root table
func New(config Config) (*VirtualMemory, error) {
	if config.Logger == nil {
		config.Logger = model.DefaultLoggerInstance
	}

	geometry := config.Geometry.Normalized()
	if err := geometry.Validate(); err != nil {
		return nil, err
	}

	pm := storage.NewPhysicalMemory(geometry, config.Swap, config.Logger)
	vm := &VirtualMemory{
		geometry: geometry,
		pm:       pm,
		logger:   config.Logger,
	}
	vm.translator = &translator{
		pm:       pm,
		finder:   newFrameFinder(pm, config.Logger),
		geometry: geometry,
		stats:    &vm.stats,
		logger:   config.Logger,
	}
	vm.Initialize()

	vm.logger.Info("Virtual memory ready: %d pages of %d words over %d frames, %d table levels",
		geometry.NumPages(), geometry.PageSize(), geometry.NumFrames(), geometry.TablesDepth)
	return vm, nil
}

// Initialize zero-fills the root table. Calling it again on a fresh memory
// is harmless; calling it mid-session orphans every mapped page.
func (vm *VirtualMemory) Initialize() {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	for i := uint64(0); i < vm.geometry.PageSize(); i++ {
		vm.pm.Write(i, 0)
	}
}

func (vm *VirtualMemory) checkAddress(addr uint64) error {
	if limit := vm.geometry.VirtualMemorySize(); addr >= limit {
		vm.stats.RejectedAccesses++
		return model.ErrVirtualAddressOutOfRange{Address: addr, Limit: limit}
	}
	return nil
}

// Read returns the word at a virtual address. Addresses outside the virtual
// address space return model.ErrVirtualAddressOutOfRange and change nothing.
func (vm *VirtualMemory) Read(addr uint64) (model.Word, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if err := vm.checkAddress(addr); err != nil {
		return 0, err
	}
	physical, err := vm.translator.translate(addr)
	if err != nil {
		return 0, fmt.Errorf("read of %d: %w", addr, err)
	}
	vm.stats.Reads++
	return vm.pm.Read(physical), nil
}

// Write stores value at a virtual address. Addresses outside the virtual
// address space return model.ErrVirtualAddressOutOfRange and change nothing.
func (vm *VirtualMemory) Write(addr uint64, value model.Word) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if err := vm.checkAddress(addr); err != nil {
		return err
	}
	physical, err := vm.translator.translate(addr)
	if err != nil {
		return fmt.Errorf("write of %d: %w", addr, err)
	}
	vm.stats.Writes++
	vm.pm.Write(physical, value)
	return nil
}

// Geometry returns the normalized geometry in use
func (vm *VirtualMemory) Geometry() model.Geometry {
	return vm.geometry
}

// Stats returns a copy of the counters
func (vm *VirtualMemory) Stats() Stats {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.stats
}

// Frames returns a copy of every physical frame
func (vm *VirtualMemory) Frames() []model.Frame {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.pm.Frames()
}

// Swap returns a copy of the swap content keyed by page number
func (vm *VirtualMemory) Swap() (map[uint64]model.Frame, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.pm.SwapSnapshot()
}

// Close releases the swap store
func (vm *VirtualMemory) Close() error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if err := vm.pm.Close(); err != nil {
		return fmt.Errorf("failed to close swap: %w", err)
	}
	vm.logger.Info("Virtual memory closed after %d reads, %d writes, %d evictions",
		vm.stats.Reads, vm.stats.Writes, vm.stats.Evictions)
	return nil
}

// ResidentPages maps every page currently reachable from the root table
// to the frame holding it
func (vm *VirtualMemory) ResidentPages() map[uint64]uint64 {
	frames := vm.Frames()
	resident := make(map[uint64]uint64)

	var visit func(depth uint, frame, path uint64)
	visit = func(depth uint, frame, path uint64) {
		if depth == vm.geometry.TablesDepth {
			resident[path] = frame
			return
		}
		for slot, child := range frames[frame] {
			if child != 0 {
				visit(depth+1, uint64(child), path<<vm.geometry.OffsetWidth|uint64(slot))
			}
		}
	}
	visit(0, 0, 0)
	return resident
}
