// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package restable provides a hash-indexed resource table: an in-memory
// associative container mapping caller-supplied identifiers to caller-owned
// records, tuned for the access pattern of a long-lived process database
// where records are registered once, looked up many times, and removed in
// arbitrary order.
//
// # Intrusive storage
//
// The table does not allocate per entry. A record type embeds a Link and
// exposes its identifier, and the table threads bucket chains through the
// embedded links:
//
//	type channel struct {
//	    id restable.StringID
//	    restable.Link[channel]
//	    // payload ...
//	}
//
//	func (c *channel) ResourceID() restable.StringID { return c.id }
//
//	tbl, _ := restable.New[channel, restable.StringID, *channel]()
//
// The table borrows records between Add and Remove; their storage belongs to
// the caller. The caller must Remove a record before freeing or reusing it —
// the table cannot detect a dangling entry. A record may be a member of at
// most one table at a time.
//
// # Linear hashing
//
// Buckets are short singly-linked chains (mean occupancy is about one at the
// target load). The table grows by linear hashing: when the load factor
// exceeds one, a single bucket is split and only its records are rehashed,
// so growth never rehashes the whole table at once. Buckets below
// nextSplitIndex have already been split in the current doubling round and
// select their index with the wider mask; buckets at or above it still share
// a chain with their future shadow bucket and use the narrower mask. A
// completed round doubles the bucket-head array, which costs one copy of an
// array of pointers regardless of how many records are installed.
//
// # Concurrency
//
// A Table is NOT goroutine-safe. Callers serialize access externally; a
// reader/writer lock is admissible because Lookup, All, and Iter do not
// mutate table state.
package restable

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// ErrDuplicate is returned by Add when a record with an equal identifier is
// already installed. The caller's record is not modified.
var ErrDuplicate = errors.New("restable: identifier already installed")

// ErrAllocFailed is returned by New when the configured Allocator cannot
// provide the initial bucket array.
var ErrAllocFailed = errors.New("restable: bucket array allocation failed")

// Table is a hash-indexed collection of records of type T keyed by
// identifiers of type ID. PT is the record pointer type; see Entry for the
// contract it must satisfy.
type Table[T any, ID Identifier[ID], PT Entry[T, ID]] struct {
	// buckets is the logical bucket array: len(buckets) is the current
	// table size. The backing array is always sized to the doubled region
	// (hashIxSplitMask+1) so that a split step only extends the slice.
	buckets []Chain[T, PT]
	// nextSplitIndex is the bucket that will be split next. Buckets below
	// it use hashIxSplitMask, buckets at or above it use hashIxMask.
	nextSplitIndex  uint
	hashIxMask      uint
	hashIxSplitMask uint
	nInUse          uint
	// hash overrides ID.Hash when set via WithHash.
	hash  func(ID) uint
	alloc Allocator[T, PT]
}

// New constructs an empty table. The initial bucket count is
// 1 << (ID.MinIndexBitWidth()+1), one doubling past the identifier's
// minimum table width. Returns ErrAllocFailed if the configured Allocator
// cannot provide the bucket array.
func New[T any, ID Identifier[ID], PT Entry[T, ID]](options ...option[T, ID, PT]) (*Table[T, ID, PT], error) {
	var zero ID
	minWidth := zero.MinIndexBitWidth()
	t := &Table[T, ID, PT]{
		hashIxMask:      (1 << (minWidth + 1)) - 1,
		hashIxSplitMask: (1 << (minWidth + 2)) - 1,
		alloc:           defaultAllocator[T, PT]{},
	}
	for _, op := range options {
		op.apply(t)
	}
	heads := t.alloc.AllocBuckets(int(t.hashIxSplitMask + 1))
	if heads == nil {
		return nil, ErrAllocFailed
	}
	t.buckets = heads[:t.hashIxMask+1]
	t.checkInvariants()
	return t, nil
}

// Add installs res. Returns ErrDuplicate, leaving res untouched, if a record
// with an equal identifier is already installed. res must not currently be a
// member of any table.
func (t *Table[T, ID, PT]) Add(res *T) error {
	id := PT(res).ResourceID()
	h := t.hashOf(id)
	if t.find(&t.buckets[t.bucketIndex(h)], id) != nil {
		return ErrDuplicate
	}
	if t.nInUse > uint(len(t.buckets)) {
		t.splitBucket()
	}
	// The split may have moved this identifier's bucket; recompute.
	t.buckets[t.bucketIndex(h)].PushFront(res)
	t.nInUse++
	t.checkInvariants()
	return nil
}

// Lookup returns the installed record whose identifier equals id, or nil.
func (t *Table[T, ID, PT]) Lookup(id ID) *T {
	return t.find(&t.buckets[t.bucketIndex(t.hashOf(id))], id)
}

// Remove unlinks and returns the installed record whose identifier equals
// id, or nil if there is none. The record's storage is returned to the
// caller's full control.
func (t *Table[T, ID, PT]) Remove(id ID) *T {
	c := &t.buckets[t.bucketIndex(t.hashOf(id))]
	var prev *T
	for r := c.First(); r != nil; r = PT(r).link().next {
		if PT(r).ResourceID().Equal(id) {
			if prev == nil {
				c.PopFront()
			} else {
				c.RemoveAfter(prev)
			}
			t.nInUse--
			t.checkInvariants()
			return r
		}
		prev = r
	}
	return nil
}

// Traverse invokes op for every installed record exactly once. The successor
// is captured before each call, so op may unlink the current record,
// including by calling Remove with its identifier. No records may be added
// during traversal.
func (t *Table[T, ID, PT]) Traverse(op func(*T)) {
	for i := range t.buckets {
		r := t.buckets[i].First()
		for r != nil {
			next := PT(r).link().next
			op(r)
			r = next
		}
	}
}

// All calls yield for every installed record until yield returns false. The
// table must not be mutated during the iteration.
func (t *Table[T, ID, PT]) All(yield func(*T) bool) {
	for i := range t.buckets {
		for r := t.buckets[i].First(); r != nil; r = PT(r).link().next {
			if !yield(r) {
				return
			}
		}
	}
}

// Len returns the number of records installed.
func (t *Table[T, ID, PT]) Len() int {
	return int(t.nInUse)
}

// Iter returns a forward iterator over the table. Each installed record is
// yielded exactly once, in ascending bucket order and chain order within a
// bucket. The iteration is undefined if the table is mutated before it
// completes; construct a fresh iterator to restart.
func (t *Table[T, ID, PT]) Iter() Iter[T, ID, PT] {
	return Iter[T, ID, PT]{t: t}
}

// Iter is a forward iterator over a Table. See Table.Iter.
type Iter[T any, ID Identifier[ID], PT Entry[T, ID]] struct {
	t      *Table[T, ID, PT]
	cur    *T
	bucket int
}

// Next returns the next record, or nil when the iteration is exhausted.
func (it *Iter[T, ID, PT]) Next() *T {
	for {
		if it.cur != nil {
			r := it.cur
			it.cur = PT(r).link().next
			return r
		}
		if it.bucket >= len(it.t.buckets) {
			return nil
		}
		it.cur = it.t.buckets[it.bucket].First()
		it.bucket++
	}
}

// Show writes human-readable diagnostics to standard output. Level 0 prints
// the bucket and record counts; level 1 adds per-bucket occupancy
// statistics; level 3 additionally invokes Show on each record that
// implements Shower.
func (t *Table[T, ID, PT]) Show(level uint) {
	n := len(t.buckets)
	fmt.Printf("resource table with %d buckets and %d entries installed\n", n, t.nInUse)
	if level < 1 {
		return
	}
	var x, xx float64
	maxEntries := 0
	for i := range t.buckets {
		count := 0
		for r := t.buckets[i].First(); r != nil; r = PT(r).link().next {
			if level >= 3 {
				if s, ok := any(PT(r)).(Shower); ok {
					s.Show(level)
				}
			}
			count++
		}
		if count > 0 {
			x += float64(count)
			xx += float64(count) * float64(count)
			if count > maxEntries {
				maxEntries = count
			}
		}
	}
	mean := x / float64(n)
	stdDev := math.Sqrt(xx/float64(n) - mean*mean)
	fmt.Printf("entries per bucket: mean = %f std dev = %f max = %d\n",
		mean, stdDev, maxEntries)
	if x != float64(t.nInUse) {
		fmt.Printf("installed count %d does not match entries counted %f\n", t.nInUse, x)
	}
}

// Shower is implemented by records (or identifiers embedded in them) that
// can print themselves for Show at level 3 and above.
type Shower interface {
	Show(level uint)
}

// Verify walks every chain and panics if a record is linked into a bucket
// other than the one its identifier currently hashes to, or if the installed
// count or mask arithmetic is inconsistent.
func (t *Table[T, ID, PT]) Verify() {
	if t.hashIxSplitMask != 2*(t.hashIxMask+1)-1 {
		panic(fmt.Sprintf("restable: split mask %#x inconsistent with mask %#x\n%s",
			t.hashIxSplitMask, t.hashIxMask, t.debugString()))
	}
	if uint(len(t.buckets)) != t.hashIxMask+1+t.nextSplitIndex {
		panic(fmt.Sprintf("restable: %d buckets, expected %d (mask %#x, next split %d)\n%s",
			len(t.buckets), t.hashIxMask+1+t.nextSplitIndex, t.hashIxMask, t.nextSplitIndex,
			t.debugString()))
	}
	var total uint
	for i := range t.buckets {
		for r := t.buckets[i].First(); r != nil; r = PT(r).link().next {
			if got := t.bucketIndex(t.hashOf(PT(r).ResourceID())); got != uint(i) {
				panic(fmt.Sprintf("restable: record in bucket %d hashes to bucket %d\n%s",
					i, got, t.debugString()))
			}
			total++
		}
	}
	if total != t.nInUse {
		panic(fmt.Sprintf("restable: counted %d records, but installed count is %d\n%s",
			total, t.nInUse, t.debugString()))
	}
}

// checkInvariants verifies the table after a mutation when built with the
// invariants tag.
func (t *Table[T, ID, PT]) checkInvariants() {
	if invariants {
		t.Verify()
	}
}

func (t *Table[T, ID, PT]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "buckets=%d installed=%d mask=%#x split-mask=%#x next-split=%d\n",
		len(t.buckets), t.nInUse, t.hashIxMask, t.hashIxSplitMask, t.nextSplitIndex)
	for i := range t.buckets {
		count := 0
		for r := t.buckets[i].First(); r != nil; r = PT(r).link().next {
			count++
		}
		if count > 0 {
			fmt.Fprintf(&buf, "  %4d: %d\n", i, count)
		}
	}
	return buf.String()
}

func (t *Table[T, ID, PT]) hashOf(id ID) uint {
	if t.hash != nil {
		return t.hash(id)
	}
	return id.Hash()
}

// bucketIndex selects the bucket for hash h. Buckets below nextSplitIndex
// have been split in the current round and use the doubled-region mask.
func (t *Table[T, ID, PT]) bucketIndex(h uint) uint {
	b0 := h & t.hashIxMask
	if b0 >= t.nextSplitIndex {
		return b0
	}
	return h & t.hashIxSplitMask
}

func (t *Table[T, ID, PT]) find(c *Chain[T, PT], id ID) *T {
	for r := c.First(); r != nil; r = PT(r).link().next {
		if PT(r).ResourceID().Equal(id) {
			return r
		}
	}
	return nil
}

// splitBucket performs one linear-hashing split step: when the current
// doubling round is complete it first doubles the bucket-head array (a copy
// of len(buckets) chain heads; no records are touched), then detaches the
// chain at nextSplitIndex and re-links each of its records under the wider
// mask. Each record lands either back in its bucket or in the shadow bucket
// just exposed at the end of the array.
//
// If the doubled array cannot be allocated, or doubling would exceed the
// identifier's maximum index width, the step is skipped: the load factor
// drifts above the target but every operation remains correct, and later
// Adds retry the split.
func (t *Table[T, ID, PT]) splitBucket() {
	if t.nextSplitIndex > t.hashIxMask {
		var zero ID
		if maxWidth := zero.MaxIndexBitWidth(); maxWidth < bits.UintSize && t.hashIxSplitMask+1 >= 1<<maxWidth {
			// The table is as wide as the identifier space allows.
			return
		}
		newSize := 2 * (t.hashIxSplitMask + 1)
		newHeads := t.alloc.AllocBuckets(int(newSize))
		if newHeads == nil {
			// No room to expose the shadow bucket; skip the step entirely.
			return
		}
		// Chains are intrusive, so copying the heads transfers every chain.
		old := t.buckets
		copy(newHeads, old)
		t.buckets = newHeads[:len(old)]
		t.alloc.FreeBuckets(old)
		t.hashIxMask = t.hashIxSplitMask
		t.hashIxSplitMask = newSize - 1
		t.nextSplitIndex = 0
	}
	tmp := t.buckets[t.nextSplitIndex]
	t.buckets[t.nextSplitIndex] = Chain[T, PT]{}
	t.nextSplitIndex++
	t.buckets = t.buckets[:len(t.buckets)+1]
	for {
		r := tmp.PopFront()
		if r == nil {
			break
		}
		t.buckets[t.bucketIndex(t.hashOf(PT(r).ResourceID()))].PushFront(r)
	}
}
