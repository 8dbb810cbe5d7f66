package model

import (
	"errors"
	"testing"
)

func TestDefaultGeometry(t *testing.T) {
	g := DefaultGeometry()
	if err := g.Validate(); err != nil {
		t.Fatalf("Default geometry should be valid: %v", err)
	}

	checks := []struct {
		name      string
		got, want uint64
	}{
		{"PageSize", g.PageSize(), 16},
		{"NumPages", g.NumPages(), 1 << 16},
		{"NumFrames", g.NumFrames(), 64},
		{"RAMSize", g.RAMSize(), 1024},
		{"VirtualMemorySize", g.VirtualMemorySize(), 1 << 20},
		{"OffsetMask", g.OffsetMask(), 0xF},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %d, got %d", c.name, c.want, c.got)
		}
	}
}

func TestGeometryNormalized(t *testing.T) {
	g := DefaultGeometry()
	g.TablesDepth = 0
	if n := g.Normalized(); n.TablesDepth != 4 {
		t.Errorf("Expected derived depth 4, got %d", n.TablesDepth)
	}

	// 7 page bits with 3-bit tables need 3 levels
	g = Geometry{WordWidth: 16, OffsetWidth: 3, VirtualAddressWidth: 10, PhysicalAddressWidth: 6}
	if n := g.Normalized(); n.TablesDepth != 3 {
		t.Errorf("Expected derived depth 3, got %d", n.TablesDepth)
	}

	g.TablesDepth = 5
	if n := g.Normalized(); n.TablesDepth != 5 {
		t.Errorf("An explicit depth should be kept, got %d", n.TablesDepth)
	}
}

func TestGeometryValidate(t *testing.T) {
	base := DefaultGeometry()

	tests := []struct {
		name   string
		modify func(g *Geometry)
		field  string
	}{
		{"zero word width", func(g *Geometry) { g.WordWidth = 0 }, "WordWidth"},
		{"wide word", func(g *Geometry) { g.WordWidth = 65 }, "WordWidth"},
		{"zero offset", func(g *Geometry) { g.OffsetWidth = 0 }, "OffsetWidth"},
		{"zero depth", func(g *Geometry) { g.TablesDepth = 0 }, "TablesDepth"},
		{"huge virtual space", func(g *Geometry) { g.VirtualAddressWidth = 64 }, "VirtualAddressWidth"},
		{"huge physical space", func(g *Geometry) { g.PhysicalAddressWidth = 64; g.WordWidth = 64 }, "PhysicalAddressWidth"},
		{"virtual smaller than a page", func(g *Geometry) { g.VirtualAddressWidth = 4 }, "VirtualAddressWidth"},
		{"physical smaller than a page", func(g *Geometry) { g.PhysicalAddressWidth = 4 }, "PhysicalAddressWidth"},
		{"shallow tree", func(g *Geometry) { g.TablesDepth = 3 }, "TablesDepth"},
		{"narrow word", func(g *Geometry) { g.WordWidth = 6 }, "WordWidth"},
		{"too few frames", func(g *Geometry) { g.PhysicalAddressWidth = 6 }, "PhysicalAddressWidth"},
	}

	for _, tt := range tests {
		g := base
		tt.modify(&g)
		err := g.Validate()

		var geomErr ErrInvalidGeometry
		if !errors.As(err, &geomErr) {
			t.Errorf("%s: expected ErrInvalidGeometry, got %v", tt.name, err)
			continue
		}
		if geomErr.Field != tt.field {
			t.Errorf("%s: expected field %s, got %s (%v)", tt.name, tt.field, geomErr.Field, err)
		}
	}

	// A word exactly wide enough for the largest frame index is accepted
	g := base
	g.WordWidth = 7
	if err := g.Validate(); err != nil {
		t.Errorf("Expected 7-bit words to hold 64 frame indices, got %v", err)
	}

	// Extra levels beyond what the address needs are allowed
	g = base
	g.TablesDepth = 5
	if err := g.Validate(); err != nil {
		t.Errorf("Expected a deeper tree to be valid, got %v", err)
	}
}
