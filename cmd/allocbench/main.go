// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command allocbench drives a random allocate/free workload against an
// sballoc.Allocator and reports how the heap grew, mirroring the way
// lldb/falloc_test.go's TestAllocatorRnd is parameterized through flags
// rather than constants baked into the test itself.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/cznic/sballoc"
)

func main() {
	var (
		n        = flag.Int("n", 10000, "number of allocate/free steps")
		maxSize  = flag.Int("max", 2048, "maximum single request size in bytes")
		seed     = flag.Int64("seed", 42, "PRNG seed")
		arena    = flag.Int("arena", 64<<20, "MmapProvider arena reservation, in bytes")
		useMmap  = flag.Bool("mmap", false, "back the heap with MmapProvider instead of MemHeapProvider")
		checkAll = flag.Bool("check", false, "run the consistency checker after every step (slow)")
	)
	flag.Parse()

	var provider sballoc.HeapProvider
	if *useMmap {
		p, err := sballoc.NewMmapProvider(*arena)
		if err != nil {
			log.Fatalf("allocbench: NewMmapProvider: %v", err)
		}
		defer p.Close()
		provider = p
	} else {
		provider = sballoc.NewMemHeapProvider()
	}

	a, err := sballoc.NewAllocator(provider)
	if err != nil {
		log.Fatalf("allocbench: NewAllocator: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	var live []sballoc.Pointer
	var allocs, frees int

	for i := 0; i < *n; i++ {
		if len(live) == 0 || rng.Intn(2) == 0 {
			size := 1 + rng.Intn(*maxSize)
			p, err := a.Allocate(size)
			if err != nil {
				log.Fatalf("allocbench: step %d: Allocate(%d): %v", i, size, err)
			}
			if p != 0 {
				live = append(live, p)
				allocs++
			}
		} else {
			j := rng.Intn(len(live))
			if err := a.Free(live[j]); err != nil {
				log.Fatalf("allocbench: step %d: Free: %v", i, err)
			}
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
			frees++
		}

		if *checkAll {
			if err := a.Check(nil); err != nil {
				log.Fatalf("allocbench: step %d: Check: %v", i, err)
			}
		}
	}

	if err := a.Check(nil); err != nil {
		fmt.Fprintf(os.Stderr, "allocbench: final Check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("steps=%d allocs=%d frees=%d live=%d heap_bytes=%d\n",
		*n, allocs, frees, len(live), provider.CurrentBreak())
}
