package vm

import (
	"git.canoozie.net/riddling/vmsim/pkg/model"
	"git.canoozie.net/riddling/vmsim/pkg/storage"
)

// Config holds configuration options for a VirtualMemory
type Config struct {
	// Size constants of the simulated MMU
	Geometry model.Geometry

	// Where evicted pages go. Nil means an in-memory store.
	// The VirtualMemory takes ownership and closes it.
	Swap storage.SwapStore

	// Logger for translation and eviction events
	Logger model.Logger
}

// DefaultConfig returns a configuration with the default geometry and an in-memory swap
func DefaultConfig() Config {
	return Config{
		Geometry: model.DefaultGeometry(),
		Logger:   model.DefaultLoggerInstance,
	}
}
