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

package restable

// option provide an interface to do work on Table while it is being created.
type option[T any, ID Identifier[ID], PT Entry[T, ID]] interface {
	apply(t *Table[T, ID, PT])
}

type hashOption[T any, ID Identifier[ID], PT Entry[T, ID]] struct {
	hash func(id ID) uint
}

func (op hashOption[T, ID, PT]) apply(t *Table[T, ID, PT]) {
	t.hash = op.hash
}

// WithHash is an option to replace the identifier's own hash function for a
// Table. The replacement must be stable for the lifetime of the table and,
// like Identifier.Hash, return an unmasked value.
func WithHash[T any, ID Identifier[ID], PT Entry[T, ID]](hash func(id ID) uint) option[T, ID, PT] {
	return hashOption[T, ID, PT]{hash}
}

// Allocator specifies an interface for allocating and releasing the
// bucket-head arrays used by a Table. The default allocator utilizes Go's
// builtin make() and allows the GC to reclaim memory.
//
// AllocBuckets may return nil to report that the allocation cannot be
// satisfied. During construction a nil return surfaces as ErrAllocFailed;
// during growth the table skips the split step and keeps operating above its
// target load factor.
type Allocator[T any, PT Linked[T]] interface {
	// AllocBuckets should return a slice equivalent to
	// make([]Chain[T, PT], n), or nil on failure.
	AllocBuckets(n int) []Chain[T, PT]

	// FreeBuckets can optionally release the memory associated with the
	// supplied slice that is guaranteed to have been returned by
	// AllocBuckets.
	FreeBuckets(v []Chain[T, PT])
}

type defaultAllocator[T any, PT Linked[T]] struct{}

func (defaultAllocator[T, PT]) AllocBuckets(n int) []Chain[T, PT] {
	return make([]Chain[T, PT], n)
}

func (defaultAllocator[T, PT]) FreeBuckets(v []Chain[T, PT]) {
}

type allocatorOption[T any, ID Identifier[ID], PT Entry[T, ID]] struct {
	allocator Allocator[T, PT]
}

func (op allocatorOption[T, ID, PT]) apply(t *Table[T, ID, PT]) {
	t.alloc = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for a Table.
func WithAllocator[T any, ID Identifier[ID], PT Entry[T, ID]](allocator Allocator[T, PT]) option[T, ID, PT] {
	return allocatorOption[T, ID, PT]{allocator}
}
