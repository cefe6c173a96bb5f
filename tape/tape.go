// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package tape implements the growable byte memory of the bfenv machine.
package tape

import (
	"iter"
)

const (
	BLOCK_SIZE = 0x1000 // Default growth granularity, in cells.
)

// Observer is notified of changes made through the checked operations.
type Observer interface {
	// CellChanged reports a new value at a cell index.
	CellChanged(index int, value byte)
	// PointerMoved reports a new pointer position.
	PointerMoved(pointer int)
	// Resized reports a new tape length.
	Resized(length int)
}

// Tape is a byte array with a bounds checked pointer.
type Tape struct {
	BlockSize int      // Growth granularity; BLOCK_SIZE if zero.
	Observer  Observer // Optional observer of checked operations.

	Data    []byte
	Pointer int
}

// New creates a tape of at least size cells.
func New(size int) (t *Tape) {
	t = &Tape{}
	t.Grow(size)

	return
}

func (t *Tape) blockSize() int {
	if t.BlockSize <= 0 {
		return BLOCK_SIZE
	}
	return t.BlockSize
}

// Len returns the current tape length.
func (t *Tape) Len() int {
	return len(t.Data)
}

// Reset zeros every cell and returns the pointer to the origin.
// The tape keeps its length.
func (t *Tape) Reset() {
	clear(t.Data)
	t.Pointer = 0

	t.Refresh()
}

// Refresh sends the full tape geometry to the observer.
func (t *Tape) Refresh() {
	if t.Observer == nil {
		return
	}

	t.Observer.Resized(len(t.Data))
	t.Observer.PointerMoved(t.Pointer)
}

// Grow extends the tape so it holds at least length cells, rounding up
// to the block size. Returns true if the tape changed size.
func (t *Tape) Grow(length int) (grown bool) {
	if length <= len(t.Data) {
		return
	}

	block := t.blockSize()
	length = ((length + block - 1) / block) * block

	data := make([]byte, length)
	copy(data, t.Data)
	t.Data = data
	grown = true

	return
}

// Read returns the cell at the pointer.
func (t *Tape) Read() byte {
	return t.Data[t.Pointer]
}

// Write sets the cell at the pointer.
func (t *Tape) Write(value byte) {
	t.Data[t.Pointer] = value

	if t.Observer != nil {
		t.Observer.CellChanged(t.Pointer, value)
	}
}

// Add adds a signed delta to the cell at the pointer, modulo 256.
func (t *Tape) Add(delta int) {
	t.AddUnchecked(delta)

	if t.Observer != nil {
		t.Observer.CellChanged(t.Pointer, t.Data[t.Pointer])
	}
}

// AddUnchecked is Add without observer notification.
func (t *Tape) AddUnchecked(delta int) {
	t.Data[t.Pointer] += byte(delta)
}

// SetPointer moves the pointer to an existing cell.
func (t *Tape) SetPointer(pointer int) (err error) {
	if pointer < 0 || pointer >= len(t.Data) {
		err = ErrOutOfRange(pointer)
		return
	}

	t.Pointer = pointer

	if t.Observer != nil {
		t.Observer.PointerMoved(pointer)
	}

	return
}

// AdvanceChecked moves the pointer by delta, growing the tape as needed.
// Only a negative destination is a fault.
func (t *Tape) AdvanceChecked(delta int) (err error) {
	pointer := t.Pointer + delta
	if pointer < 0 {
		err = ErrOutOfRange(pointer)
		return
	}

	if t.Grow(pointer+1) && t.Observer != nil {
		t.Observer.Resized(len(t.Data))
	}

	return t.SetPointer(pointer)
}

// AdvanceUnchecked is AdvanceChecked without observer notification.
func (t *Tape) AdvanceUnchecked(delta int) (err error) {
	pointer := t.Pointer + delta
	if pointer < 0 {
		err = ErrOutOfRange(pointer)
		return
	}

	t.Grow(pointer + 1)
	t.Pointer = pointer

	return
}

// Rows iterates over the tape in rows of width cells, yielding the
// index of the first cell of each row.
func (t *Tape) Rows(width int) iter.Seq2[int, []byte] {
	return func(yield func(index int, row []byte) bool) {
		if width <= 0 {
			return
		}
		for index := 0; index < len(t.Data); index += width {
			end := min(index+width, len(t.Data))
			if !yield(index, t.Data[index:end]) {
				return
			}
		}
	}
}
