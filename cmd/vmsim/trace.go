package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"git.canoozie.net/riddling/vmsim/pkg/model"
	"git.canoozie.net/riddling/vmsim/pkg/vm"
)

// opKind is one trace command
type opKind int

const (
	opRead opKind = iota
	opWrite
	opDump
	opStats
)

// traceOp is a parsed trace line
type traceOp struct {
	kind    opKind
	address uint64
	value   model.Word
	line    int
}

// parseTraceLine parses "r ADDR", "w ADDR VALUE", "dump" or "stats".
// Blank lines and lines starting with '#' yield ok == false.
func parseTraceLine(text string, line int) (op traceOp, ok bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "#") {
		return traceOp{}, false, nil
	}

	fields := strings.Fields(text)
	op.line = line
	switch strings.ToLower(fields[0]) {
	case "r", "read":
		if len(fields) != 2 {
			return traceOp{}, false, fmt.Errorf("line %d: read takes an address", line)
		}
		op.kind = opRead
	case "w", "write":
		if len(fields) != 3 {
			return traceOp{}, false, fmt.Errorf("line %d: write takes an address and a value", line)
		}
		op.kind = opWrite
		value, err := strconv.ParseInt(fields[2], 0, 64)
		if err != nil {
			return traceOp{}, false, fmt.Errorf("line %d: bad value %q: %w", line, fields[2], err)
		}
		op.value = model.Word(value)
	case "dump":
		op.kind = opDump
		return op, true, nil
	case "stats":
		op.kind = opStats
		return op, true, nil
	default:
		return traceOp{}, false, fmt.Errorf("line %d: unknown command %q", line, fields[0])
	}

	address, err := strconv.ParseUint(fields[1], 0, 64)
	if err != nil {
		return traceOp{}, false, fmt.Errorf("line %d: bad address %q: %w", line, fields[1], err)
	}
	op.address = address
	return op, true, nil
}

// runTrace executes every command read from r, printing read results,
// dumps and stats to out. Out-of-range accesses are reported and skipped.
func runTrace(mem *vm.VirtualMemory, r io.Reader, out io.Writer, logger model.Logger) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		op, ok, err := parseTraceLine(scanner.Text(), line)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		switch op.kind {
		case opRead:
			value, err := mem.Read(op.address)
			if err != nil {
				if isRejected(err) {
					logger.Warn("line %d: %v", op.line, err)
					continue
				}
				return err
			}
			fmt.Fprintf(out, "%d\t%d\n", op.address, value)
		case opWrite:
			if err := mem.Write(op.address, op.value); err != nil {
				if isRejected(err) {
					logger.Warn("line %d: %v", op.line, err)
					continue
				}
				return err
			}
		case opDump:
			if err := mem.DumpRAM(out); err != nil {
				return err
			}
			if err := mem.DumpSwap(out); err != nil {
				return err
			}
		case opStats:
			printStats(out, mem.Stats())
		}
	}
	return scanner.Err()
}

func isRejected(err error) bool {
	var outOfRange model.ErrVirtualAddressOutOfRange
	return errors.As(err, &outOfRange)
}

func printStats(out io.Writer, stats vm.Stats) {
	fmt.Fprintf(out, "reads=%d writes=%d rejected=%d table_misses=%d page_faults=%d empty_reuses=%d unused_frames=%d evictions=%d restores=%d\n",
		stats.Reads, stats.Writes, stats.RejectedAccesses, stats.TableMisses, stats.PageFaults,
		stats.EmptyTableReuses, stats.UnusedFrameUses, stats.Evictions, stats.SwapRestores)
}

// runSweep writes a value to every stride-th page, then reads them all back.
// It returns the number of mismatches.
func runSweep(mem *vm.VirtualMemory, pages, stride uint64) (int, error) {
	geometry := mem.Geometry()
	numPages := geometry.NumPages()
	addressOf := func(i uint64) uint64 {
		return ((i * stride) % numPages) * geometry.PageSize()
	}

	for i := uint64(0); i < pages; i++ {
		if err := mem.Write(addressOf(i), model.Word(i)); err != nil {
			return 0, err
		}
	}

	mismatches := 0
	for i := uint64(0); i < pages; i++ {
		value, err := mem.Read(addressOf(i))
		if err != nil {
			return mismatches, err
		}
		if value != model.Word(i) && !overwrittenLater(i, pages, stride, numPages) {
			mismatches++
		}
	}
	return mismatches, nil
}

// overwrittenLater reports whether a later sweep step wraps onto the page of step i
func overwrittenLater(i, pages, stride, numPages uint64) bool {
	for j := i + 1; j < pages; j++ {
		if (j*stride)%numPages == (i*stride)%numPages {
			return true
		}
	}
	return false
}
