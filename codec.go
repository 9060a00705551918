// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sballoc

import (
	"encoding/binary"

	"github.com/cznic/mathutil"
)

// Pointer is a byte offset within a heap owned by an Allocator. The zero
// Pointer is reserved: it addresses the fixed, never-allocated alignment
// padding at the very start of the heap and doubles as the free-list "nil"
// link and the allocate-failure sentinel.
type Pointer = int64

// nilPointer is the sentinel used both for free-list links with no
// neighbour and for a failed Allocate/Resize.
const nilPointer Pointer = 0

// padBytes reserves four bytes ahead of the prologue so that every block
// header lands at an offset congruent to WORD (mod A): header+WORD is then
// always A-aligned, which is what makes the user-visible payload pointer
// A-aligned.
const padBytes = WORD

// word reads/writes the WORD-byte big-endian header/footer/link field at
// off. Link fields store a Pointer truncated to 32 bits; a heap larger than
// 4 GiB is outside this allocator's design envelope, same as the classic
// implicit/explicit-free-list allocators it is modeled on.
func (a *Allocator) readWord(off Pointer) (uint32, error) {
	var b [WORD]byte
	if _, err := a.p.ReadAt(b[:], off); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (a *Allocator) writeWord(off Pointer, w uint32) error {
	var b [WORD]byte
	binary.BigEndian.PutUint32(b[:], w)
	_, err := a.p.WriteAt(b[:], off)
	return err
}

// pack/unpack implement the {size, allocated_bit} boundary-tag encoding.
// size is always an A-aligned multiple, so the low bits are free for flags.
func pack(size int, allocated bool) uint32 {
	w := uint32(size)
	if allocated {
		w |= allocBit
	}
	return w
}

func unpackSize(w uint32) int    { return int(w &^ allocBit) }
func unpackAlloc(w uint32) bool  { return w&allocBit != 0 }

// footer and link-slot offsets relative to a block's own starting offset
// (the header offset).
func footerOff(block Pointer, size int) Pointer { return block + Pointer(size) - WORD }
func predOff(block Pointer) Pointer             { return block + WORD }
func succOff(block Pointer) Pointer             { return block + 2*WORD }

// readHeader/readFooter decode the boundary tags of the block starting at
// block; writeTags encodes them.
func (a *Allocator) readHeader(block Pointer) (size int, allocated bool, err error) {
	w, err := a.readWord(block)
	if err != nil {
		return 0, false, err
	}
	return unpackSize(w), unpackAlloc(w), nil
}

func (a *Allocator) readFooter(block Pointer, size int) (allocated bool, err error) {
	w, err := a.readWord(footerOff(block, size))
	if err != nil {
		return false, err
	}
	return unpackAlloc(w), nil
}

// writeTags writes matching header and footer words for a block of the
// given size and allocated state. Invariant 2 (header/footer mirror) is
// maintained by never writing one without the other.
func (a *Allocator) writeTags(block Pointer, size int, allocated bool) error {
	w := pack(size, allocated)
	if err := a.writeWord(block, w); err != nil {
		return err
	}
	return a.writeWord(footerOff(block, size), w)
}

// readPred/readSucc/writePred/writeSucc access the free-list link slots
// overlaid on a free block's payload.
func (a *Allocator) readPred(block Pointer) (Pointer, error) {
	w, err := a.readWord(predOff(block))
	return Pointer(w), err
}

func (a *Allocator) readSucc(block Pointer) (Pointer, error) {
	w, err := a.readWord(succOff(block))
	return Pointer(w), err
}

func (a *Allocator) writePred(block, pred Pointer) error {
	return a.writeWord(predOff(block), uint32(pred))
}

func (a *Allocator) writeSucc(block, succ Pointer) error {
	return a.writeWord(succOff(block), uint32(succ))
}

// clearLinks zeroes the link slots of a block that is becoming free, before
// it is linked into a free list.
func (a *Allocator) clearLinks(block Pointer) error {
	if err := a.writePred(block, nilPointer); err != nil {
		return err
	}
	return a.writeSucc(block, nilPointer)
}

// prevFooterOff locates the footer word of a block's immediate left
// neighbour; nextBlock locates the header of its immediate right neighbour.
func prevFooterOff(block Pointer) Pointer { return block - WORD }

func (a *Allocator) nextBlock(block Pointer, size int) Pointer {
	return block + Pointer(size)
}

// prevBlock returns the offset of the block immediately to the left of
// block, using its footer to recover its size (the boundary-tag trick).
// It must never be called with block == heap base (the prologue).
func (a *Allocator) prevBlock(block Pointer) (Pointer, int, bool, error) {
	w, err := a.readWord(prevFooterOff(block))
	if err != nil {
		return 0, 0, false, err
	}
	size := unpackSize(w)
	return block - Pointer(size), size, unpackAlloc(w), nil
}

// asize computes the A-aligned, overhead-inclusive block size needed to
// satisfy a user request of n bytes, clamped below by minBlockSize.
func asize(n int) int {
	need := roundUp(n+overhead, A)
	return mathutil.Max(need, minBlockSize)
}
