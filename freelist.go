// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sballoc

// freeListInsert prepends block to the bucket matching its size, per
// spec.md §4.3: pred(block) = nil, succ(block) = old head, pred(old head) =
// block. This is the only shape of insertion - new free blocks always
// become their bucket's head, mirroring lldb.link's identical
// head-insertion policy (and, one level up, mm.c's explicit free list,
// which always links new nodes at free_listp).
func (a *Allocator) freeListInsert(block Pointer, size int) error {
	i := bucketOf(size)
	head := a.buckets[i]

	if err := a.writePred(block, nilPointer); err != nil {
		return err
	}
	if err := a.writeSucc(block, head); err != nil {
		return err
	}
	if head != nilPointer {
		if err := a.writePred(head, block); err != nil {
			return err
		}
	}
	a.buckets[i] = block
	return nil
}

// freeListRemove unlinks block (of the given size, hence known bucket) from
// whichever free list it currently belongs to, fixing up its neighbours'
// links or the bucket head as needed. Mirrors lldb.unlink's four-way
// pred/succ case split.
func (a *Allocator) freeListRemove(block Pointer, size int) error {
	pred, err := a.readPred(block)
	if err != nil {
		return err
	}
	succ, err := a.readSucc(block)
	if err != nil {
		return err
	}

	switch {
	case pred == nilPointer && succ == nilPointer:
		a.buckets[bucketOf(size)] = nilPointer
	case pred == nilPointer && succ != nilPointer:
		if err := a.writePred(succ, nilPointer); err != nil {
			return err
		}
		a.buckets[bucketOf(size)] = succ
	case pred != nilPointer && succ == nilPointer:
		if err := a.writeSucc(pred, nilPointer); err != nil {
			return err
		}
	default:
		if err := a.writeSucc(pred, succ); err != nil {
			return err
		}
		if err := a.writePred(succ, pred); err != nil {
			return err
		}
	}
	return nil
}

// freeListIterate calls visit for every free block in buckets
// fromBucket, fromBucket+1, ..., BUCKETS-1, head-to-tail within each
// bucket (LIFO insertion order - the most recently freed block in a class
// is tried first). It stops and returns visit's error, if any, including
// the sentinel errStopIteration used internally to end a first-fit scan
// early without treating it as a real failure.
func (a *Allocator) freeListIterate(fromBucket int, visit func(block Pointer, size int) error) error {
	for i := fromBucket; i < BUCKETS; i++ {
		block := a.buckets[i]
		for block != nilPointer {
			size, allocated, err := a.readHeader(block)
			if err != nil {
				return err
			}
			if allocated {
				return &ConsistencyError{Type: ErrExpFreeTag, Off: block}
			}
			if err := visit(block, size); err != nil {
				return err
			}
			if block, err = a.readSucc(block); err != nil {
				return err
			}
		}
	}
	return nil
}

// errStopIteration is returned by a freeListIterate visitor to end the scan
// early (first-fit hit) without surfacing an error to the caller.
var errStopIteration = &sentinelError{"sballoc: iteration stopped"}

type sentinelError struct{ s string }

func (e *sentinelError) Error() string { return e.s }
