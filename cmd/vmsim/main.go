package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"git.canoozie.net/riddling/vmsim/pkg/model"
	"git.canoozie.net/riddling/vmsim/pkg/storage"
	"git.canoozie.net/riddling/vmsim/pkg/vm"
)

var (
	tracePath = flag.String("trace", "", "Trace file to execute, '-' for stdin (default: run the sweep workload)")
	swapPath  = flag.String("swap", "", "Swap file path (default: in-memory swap)")
	syncSwap  = flag.Bool("sync", false, "fsync the swap file after every record")
	dumpAtEnd = flag.Bool("dump", false, "Dump RAM and swap when done")
	sweep     = flag.Uint64("sweep", 0, "Number of pages touched by the sweep workload (default: 2x the frame count)")
	stride    = flag.Uint64("stride", 5, "Page stride of the sweep workload")
)

// geometryFromEnv overrides the default geometry with VM_* environment variables
func geometryFromEnv(logger model.Logger) model.Geometry {
	geometry := model.DefaultGeometry()
	overrides := []struct {
		name  string
		field *uint
	}{
		{"VM_WORD_WIDTH", &geometry.WordWidth},
		{"VM_OFFSET_WIDTH", &geometry.OffsetWidth},
		{"VM_TABLES_DEPTH", &geometry.TablesDepth},
		{"VM_VIRTUAL_WIDTH", &geometry.VirtualAddressWidth},
		{"VM_PHYSICAL_WIDTH", &geometry.PhysicalAddressWidth},
	}
	for _, o := range overrides {
		raw := os.Getenv(o.name)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			logger.Warn("Ignoring %s=%q: %v", o.name, raw, err)
			continue
		}
		*o.field = uint(value)
	}
	return geometry
}

func main() {
	flag.Parse()

	logger := model.NewDefaultLogger(model.ParseLogLevel(os.Getenv("LOG_LEVEL")))
	model.SetDefaultLogger(logger)

	config := vm.DefaultConfig()
	config.Logger = logger.WithPrefix("vm")
	config.Geometry = geometryFromEnv(logger).Normalized()

	var fileSwap *storage.FileSwap
	if *swapPath != "" {
		var err error
		fileSwap, err = storage.NewFileSwap(storage.FileSwapConfig{
			Path:        *swapPath,
			PageSize:    config.Geometry.PageSize(),
			SyncOnWrite: *syncSwap,
			Truncate:    true,
			Logger:      logger.WithPrefix("swap"),
		})
		if err != nil {
			log.Fatalf("Failed to open swap file: %v", err)
		}
		config.Swap = fileSwap
	}

	mem, err := vm.New(config)
	if err != nil {
		log.Fatalf("Failed to create virtual memory: %v", err)
	}

	if *tracePath != "" {
		var in io.Reader = os.Stdin
		if *tracePath != "-" {
			file, err := os.Open(*tracePath)
			if err != nil {
				log.Fatalf("Failed to open trace: %v", err)
			}
			defer file.Close()
			in = file
		}
		if err := runTrace(mem, in, os.Stdout, logger); err != nil {
			log.Fatalf("Trace failed: %v", err)
		}
	} else {
		pages := *sweep
		if pages == 0 {
			pages = 2 * config.Geometry.NumFrames()
		}
		mismatches, err := runSweep(mem, pages, *stride)
		if err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
		if mismatches > 0 {
			logger.Error("Sweep read back %d wrong values", mismatches)
		} else {
			logger.Info("Sweep of %d pages read back every value", pages)
		}
	}

	printStats(os.Stdout, mem.Stats())
	if *dumpAtEnd {
		if err := mem.DumpRAM(os.Stdout); err != nil {
			log.Fatalf("Failed to dump RAM: %v", err)
		}
		if err := mem.DumpSwap(os.Stdout); err != nil {
			log.Fatalf("Failed to dump swap: %v", err)
		}
	}

	if fileSwap != nil && fileSwap.DeadBytes() > 0 {
		if err := fileSwap.Compact(); err != nil {
			logger.Warn("Swap compaction failed: %v", err)
		}
	}
	if err := mem.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close: %v\n", err)
		os.Exit(1)
	}
}
