package storage

import (
	"errors"
	"testing"

	"git.canoozie.net/riddling/vmsim/pkg/model"
)

func TestMemorySwapBasicOperations(t *testing.T) {
	s := NewMemorySwap()

	frame := model.Frame{1, 2, 3, 4}
	if err := s.Store(5, frame); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}
	frame[0] = 100 // the store keeps its own copy

	if !s.Contains(5) {
		t.Error("Expected page 5 to be present")
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", s.Len())
	}

	err := s.Store(5, frame)
	var dup model.ErrDuplicateSwapEntry
	if !errors.As(err, &dup) || dup.Page != 5 {
		t.Errorf("Expected ErrDuplicateSwapEntry for page 5, got %v", err)
	}

	loaded, ok, err := s.Load(5)
	if err != nil || !ok {
		t.Fatalf("Failed to load: ok=%v err=%v", ok, err)
	}
	if !loaded.Equal(model.Frame{1, 2, 3, 4}) {
		t.Errorf("Unexpected frame %v", loaded)
	}
	if s.Contains(5) || s.Len() != 0 {
		t.Error("Load should remove the entry")
	}

	_, ok, err = s.Load(5)
	if err != nil || ok {
		t.Errorf("Expected absent page, got ok=%v err=%v", ok, err)
	}
}

func TestMemorySwapClosed(t *testing.T) {
	s := NewMemorySwap()
	if err := s.Store(1, model.Frame{1}); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	if err := s.Store(2, model.Frame{2}); err != model.ErrSwapClosed {
		t.Errorf("Expected ErrSwapClosed, got %v", err)
	}
	if _, _, err := s.Load(1); err != model.ErrSwapClosed {
		t.Errorf("Expected ErrSwapClosed, got %v", err)
	}
	if _, err := s.Snapshot(); err != model.ErrSwapClosed {
		t.Errorf("Expected ErrSwapClosed, got %v", err)
	}
	if s.Contains(1) {
		t.Error("A closed swap holds nothing")
	}
}
