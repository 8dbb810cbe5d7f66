package model

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Word is the unit of storage. Table entries and user data share it.
type Word int64

// Frame is the content of one physical frame or one swapped-out page:
// PageSize words. Interpreted as a table, each word is either 0 (no child)
// or a child frame index.
type Frame []Word

// NewFrame returns a zero-filled frame of the given size
func NewFrame(pageSize uint64) Frame {
	return make(Frame, pageSize)
}

// IsZero reports whether every word of the frame is 0. An all-zero frame
// is how an unused frame and a table without children both look.
func (f Frame) IsZero() bool {
	for _, w := range f {
		if w != 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the frame
func (f Frame) Clone() Frame {
	c := make(Frame, len(f))
	copy(c, f)
	return c
}

// Equal reports whether two frames hold the same words
func (f Frame) Equal(other Frame) bool {
	if len(f) != len(other) {
		return false
	}
	for i := range f {
		if f[i] != other[i] {
			return false
		}
	}
	return true
}

// AppendBinary appends the little-endian encoding of the frame's words to buf
func (f Frame) AppendBinary(buf []byte) []byte {
	for _, w := range f {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(w))
	}
	return buf
}

// DecodeFrame is the inverse of AppendBinary. len(data) must be a multiple of 8.
func DecodeFrame(data []byte) Frame {
	f := make(Frame, len(data)/8)
	for i := range f {
		f[i] = Word(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return f
}

// Checksum returns the xxhash64 of the frame's binary encoding
func (f Frame) Checksum() uint64 {
	var scratch [8]byte
	d := xxhash.New()
	for _, w := range f {
		binary.LittleEndian.PutUint64(scratch[:], uint64(w))
		d.Write(scratch[:])
	}
	return d.Sum64()
}
