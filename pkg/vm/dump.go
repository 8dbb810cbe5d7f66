package vm

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"git.canoozie.net/riddling/vmsim/pkg/model"
)

func writeFrameLine(w *bufio.Writer, label string, number uint64, frame model.Frame) {
	fmt.Fprintf(w, "%s %d:\t", label, number)
	for _, word := range frame {
		fmt.Fprintf(w, "%d ", word)
	}
	fmt.Fprintf(w, "\t[%016x]\n", frame.Checksum())
}

// DumpRAM writes one line per physical frame with its words and checksum
func (vm *VirtualMemory) DumpRAM(w io.Writer) error {
	frames := vm.Frames()

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "##### RAM #####")
	for i, frame := range frames {
		writeFrameLine(bw, "Frame", uint64(i), frame)
	}
	fmt.Fprintln(bw)
	return bw.Flush()
}

// DumpSwap writes one line per swapped-out page, in page order
func (vm *VirtualMemory) DumpSwap(w io.Writer) error {
	swap, err := vm.Swap()
	if err != nil {
		return err
	}

	pages := make([]uint64, 0, len(swap))
	for page := range swap {
		pages = append(pages, page)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i] < pages[j] })

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "##### SWAP #####")
	for _, page := range pages {
		writeFrameLine(bw, "Page", page, swap[page])
	}
	fmt.Fprintln(bw)
	return bw.Flush()
}
