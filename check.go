// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sballoc

// Check walks the heap and the free-list registry and verifies the
// invariants of spec.md §4.7/§8, returning the first violation found. It is
// a diagnostic: unlike Allocate/Free/Resize it never mutates the heap, and
// other operations do not call it implicitly (spec.md §7).
//
// If log is non-nil, every violation found (not just the first) is reported
// to it; Check stops early only if log returns false, mirroring
// lldb.Allocator.Verify's "func(error) bool" reporter shape.
func (a *Allocator) Check(log func(error) bool) error {
	report := func(err error) error {
		if log == nil || !log(err) {
			return err
		}
		return nil
	}

	walkFree := 0
	prevAllocated := true // the prologue is allocated
	block := a.base

	for {
		size, allocated, err := a.readHeader(block)
		if err != nil {
			return err
		}

		if size == 0 && allocated {
			break // epilogue reached; heap walk complete
		}

		footerAllocated, err := a.readFooter(block, size)
		if err != nil {
			return err
		}
		if footerAllocated != allocated {
			if err := report(&ConsistencyError{Type: ErrHeaderFooterMismatch, Off: block}); err != nil {
				return err
			}
		}

		if !allocated {
			walkFree++
			if !prevAllocated {
				if err := report(&ConsistencyError{Type: ErrAdjacentFree, Off: block}); err != nil {
					return err
				}
			}
			if want := bucketOf(size); want < 0 || want >= BUCKETS {
				if err := report(&ConsistencyError{Type: ErrWrongBucket, Off: block, Arg: int64(size)}); err != nil {
					return err
				}
			}
		}

		prevAllocated = allocated
		block = a.nextBlock(block, size)
	}

	if block != a.p.CurrentBreak()-WORD {
		if err := report(&ConsistencyError{Type: ErrCoverage, Off: block}); err != nil {
			return err
		}
	}

	listCount := 0
	for i := 0; i < BUCKETS; i++ {
		head := a.buckets[i]
		if head == nilPointer {
			continue
		}
		if pred, err := a.readPred(head); err != nil {
			return err
		} else if pred != nilPointer {
			if err := report(&ConsistencyError{Type: ErrBadLink, Off: head}); err != nil {
				return err
			}
		}

		for node := head; node != nilPointer; {
			size, allocated, err := a.readHeader(node)
			if err != nil {
				return err
			}
			if allocated {
				if err := report(&ConsistencyError{Type: ErrExpFreeTag, Off: node}); err != nil {
					return err
				}
			}
			if bucketOf(size) != i {
				if err := report(&ConsistencyError{Type: ErrWrongBucket, Off: node, Arg: int64(size)}); err != nil {
					return err
				}
			}

			listCount++

			succ, err := a.readSucc(node)
			if err != nil {
				return err
			}
			if succ != nilPointer {
				if backPred, err := a.readPred(succ); err != nil {
					return err
				} else if backPred != node {
					if err := report(&ConsistencyError{Type: ErrBadLink, Off: succ}); err != nil {
						return err
					}
				}
			}
			node = succ
		}
	}

	if listCount != walkFree {
		if err := report(&ConsistencyError{Type: ErrCount, Arg: int64(listCount - walkFree)}); err != nil {
			return err
		}
	}

	return nil
}
