// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sballoc

import "sort"

// classFloor[i] is the inclusive lower bound of bucket i's size range: a
// block of size s belongs to the highest bucket whose floor is <= s. Bucket
// 0 covers everything up to 40 bytes; bucket BUCKETS-1 is the open-ended
// "anything bigger" catch-all. The doubling from 128 upward is continued to
// land exactly on the (524288, 1048576] boundary spec.md names explicitly,
// then one final catch-all bucket covers the rest - see SPEC_FULL.md §13.
//
// Modeled on lldb/flt.go's newCannedFLT, which builds an ordered table of
// per-slot minimum sizes and searches it the same way; this table is fixed
// rather than selectable because spec.md pins the 16 buckets exactly.
var classFloor = [BUCKETS]int{
	0,       // <= 40
	41,      // (40, 128]
	129,     // (128, 256]
	257,     // (256, 512]
	513,     // (512, 1024]
	1025,    // (1024, 2048]
	2049,    // (2048, 4096]
	4097,    // (4096, 8192]
	8193,    // (8192, 16384]
	16385,   // (16384, 32768]
	32769,   // (32768, 65536]
	65537,   // (65536, 131072]
	131073,  // (131072, 262144]
	262145,  // (262144, 524288]
	524289,  // (524288, 1048576]
	1048577, // > 1048576
}

// bucketOf returns the unique class i in [0, BUCKETS) whose range contains
// size. It is monotonic non-decreasing in size.
func bucketOf(size int) int {
	i := sort.Search(BUCKETS, func(i int) bool { return classFloor[i] > size })
	return i - 1
}
