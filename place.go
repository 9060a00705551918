// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sballoc

// place marks block (currently free, of size bytes, already unlinked from
// its free list by the caller) as allocated for an asize-byte request,
// splitting off and reinserting a free remainder when that remainder would
// still meet minBlockSize. Mirrors lldb.alloc's split branch
// ("if s > int64(rqAtoms)"). The returned Pointer is the user-visible
// payload address, one WORD past block's header, per spec.md §4.5.
func (a *Allocator) place(block Pointer, size, reqAsize int) (Pointer, error) {
	remainder := size - reqAsize
	if remainder >= minBlockSize {
		if err := a.writeTags(block, reqAsize, true); err != nil {
			return nilPointer, err
		}
		tail := a.nextBlock(block, reqAsize)
		if err := a.writeTags(tail, remainder, false); err != nil {
			return nilPointer, err
		}
		if err := a.clearLinks(tail); err != nil {
			return nilPointer, err
		}
		if err := a.freeListInsert(tail, remainder); err != nil {
			return nilPointer, err
		}
		return block + WORD, nil
	}

	// Internal fragmentation accepted: allocate the whole block.
	if err := a.writeTags(block, size, true); err != nil {
		return nilPointer, err
	}
	return block + WORD, nil
}
