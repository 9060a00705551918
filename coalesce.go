// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sballoc

// coalesce fuses a just-freed block (header/footer already marked free,
// not yet in any free list) with any free immediate neighbours and inserts
// the resulting block into its bucket. It is the only path that inserts
// into the free-list registry after a free, per spec.md §4.4 - every case
// below mirrors lldb.free2's latoms/ratoms zero/nonzero switch, adapted
// from handle+FLT-list addressing to block-offset+bucket-array addressing.
func (a *Allocator) coalesce(block Pointer, size int) error {
	var (
		leftBlock  Pointer
		leftSize   int
		leftFree   bool
		rightBlock = a.nextBlock(block, size)
		rightSize  int
		rightFree  bool
	)

	if block != a.base {
		lb, ls, lAlloc, err := a.prevBlock(block)
		if err != nil {
			return err
		}
		leftBlock, leftSize, leftFree = lb, ls, !lAlloc
	}

	rSize, rAlloc, err := a.readHeader(rightBlock)
	if err != nil {
		return err
	}
	rightSize, rightFree = rSize, !rAlloc

	switch {
	case !leftFree && !rightFree:
		return a.freeListInsert(block, size)

	case !leftFree && rightFree:
		if err := a.freeListRemove(rightBlock, rightSize); err != nil {
			return err
		}
		merged := size + rightSize
		if err := a.writeTags(block, merged, false); err != nil {
			return err
		}
		return a.freeListInsert(block, merged)

	case leftFree && !rightFree:
		if err := a.freeListRemove(leftBlock, leftSize); err != nil {
			return err
		}
		merged := leftSize + size
		if err := a.writeTags(leftBlock, merged, false); err != nil {
			return err
		}
		return a.freeListInsert(leftBlock, merged)

	default: // leftFree && rightFree
		if err := a.freeListRemove(leftBlock, leftSize); err != nil {
			return err
		}
		if err := a.freeListRemove(rightBlock, rightSize); err != nil {
			return err
		}
		merged := leftSize + size + rightSize
		if err := a.writeTags(leftBlock, merged, false); err != nil {
			return err
		}
		return a.freeListInsert(leftBlock, merged)
	}
}
