package main

import (
	"bytes"
	"strings"
	"testing"

	"git.canoozie.net/riddling/vmsim/pkg/model"
	"git.canoozie.net/riddling/vmsim/pkg/vm"
)

func newTraceMemory(t *testing.T) *vm.VirtualMemory {
	t.Helper()
	config := vm.DefaultConfig()
	config.Logger = model.NewNoOpLogger()
	config.Geometry = model.Geometry{
		WordWidth:            32,
		OffsetWidth:          2,
		TablesDepth:          2,
		VirtualAddressWidth:  6,
		PhysicalAddressWidth: 4,
	}
	mem, err := vm.New(config)
	if err != nil {
		t.Fatalf("Failed to create virtual memory: %v", err)
	}
	return mem
}

func TestParseTraceLine(t *testing.T) {
	tests := []struct {
		text    string
		ok      bool
		wantErr bool
		want    traceOp
	}{
		{text: "", ok: false},
		{text: "   # a comment", ok: false},
		{text: "r 12", ok: true, want: traceOp{kind: opRead, address: 12, line: 1}},
		{text: "READ 0x10", ok: true, want: traceOp{kind: opRead, address: 16, line: 1}},
		{text: "w 3 -7", ok: true, want: traceOp{kind: opWrite, address: 3, value: -7, line: 1}},
		{text: "write 0b101 0x1f", ok: true, want: traceOp{kind: opWrite, address: 5, value: 31, line: 1}},
		{text: "dump", ok: true, want: traceOp{kind: opDump, line: 1}},
		{text: "stats", ok: true, want: traceOp{kind: opStats, line: 1}},
		{text: "r", wantErr: true},
		{text: "w 1", wantErr: true},
		{text: "r -1", wantErr: true},
		{text: "w 1 abc", wantErr: true},
		{text: "jump 4", wantErr: true},
	}

	for _, tt := range tests {
		op, ok, err := parseTraceLine(tt.text, 1)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected an error", tt.text)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.text, err)
			continue
		}
		if ok != tt.ok {
			t.Errorf("%q: expected ok=%v, got %v", tt.text, tt.ok, ok)
		}
		if ok && op != tt.want {
			t.Errorf("%q: expected %+v, got %+v", tt.text, tt.want, op)
		}
	}
}

func TestRunTrace(t *testing.T) {
	mem := newTraceMemory(t)
	trace := strings.Join([]string{
		"# fill a few pages",
		"w 0 5",
		"w 63 -2",
		"w 20 9",
		"w 64 1",
		"r 0",
		"r 63",
		"r 20",
		"r 1000",
		"stats",
	}, "\n")

	var out bytes.Buffer
	if err := runTrace(mem, strings.NewReader(trace), &out, model.NewNoOpLogger()); err != nil {
		t.Fatalf("runTrace failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{"0\t5", "63\t-2", "20\t9"}
	if len(lines) != len(want)+1 {
		t.Fatalf("Expected %d output lines, got %q", len(want)+1, out.String())
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("Line %d: expected %q, got %q", i, w, lines[i])
		}
	}
	if !strings.HasPrefix(lines[3], "reads=3 writes=3 rejected=2 ") {
		t.Errorf("Unexpected stats line %q", lines[3])
	}
}

func TestRunTraceStopsOnSyntaxError(t *testing.T) {
	mem := newTraceMemory(t)
	var out bytes.Buffer
	err := runTrace(mem, strings.NewReader("w 1 2\nbogus\nr 1\n"), &out, model.NewNoOpLogger())
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Expected an error for line 2, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected no output before the error, got %q", out.String())
	}
}

func TestRunSweep(t *testing.T) {
	mem := newTraceMemory(t)

	// 40 steps of stride 5 over 16 pages wrap around several times
	mismatches, err := runSweep(mem, 40, 5)
	if err != nil {
		t.Fatalf("runSweep failed: %v", err)
	}
	if mismatches != 0 {
		t.Errorf("Expected every value to read back, got %d mismatches", mismatches)
	}

	stats := mem.Stats()
	if stats.Evictions == 0 {
		t.Error("Expected the sweep to evict pages from a 4-frame RAM")
	}
}

func TestOverwrittenLater(t *testing.T) {
	if !overwrittenLater(0, 20, 1, 16) {
		t.Error("Step 0 is revisited by step 16")
	}
	if overwrittenLater(4, 20, 1, 16) {
		t.Error("Step 4 is never revisited within 20 steps")
	}
}
