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

import (
	"fmt"
	"strings"
	"unsafe"
)

// Identifier is the contract a key type must satisfy to index a Table. The
// bit-width bounds size the table: MinIndexBitWidth sets the initial bucket
// count and MaxIndexBitWidth bounds both hash folding and table growth. Key
// material backing an identifier must remain stable for as long as any
// record carrying it is installed in a table.
type Identifier[ID any] interface {
	// Hash returns an unmasked hash of the identifier. Masking to the
	// current table width is performed by the table.
	Hash() uint
	// Equal reports whether two identifiers name the same resource.
	Equal(other ID) bool
	MinIndexBitWidth() uint
	MaxIndexBitWidth() uint
}

// Entry constrains the pointer type of records stored in a Table. A record
// embeds a Link[T] for the bucket chain and exposes the identifier it is
// indexed under. The identifier returned by ResourceID must not change while
// the record is installed.
type Entry[T any, ID any] interface {
	Linked[T]
	ResourceID() ID
}

// UnsignedInt is the set of integer types usable as IntID values.
type UnsignedInt interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint | ~uintptr
}

const intIDMinIndexWidth = 4

// IntID is a fixed-width unsigned integer identifier. The width of V bounds
// hash folding, so narrow value types make for cheap hashes: an IntID[uint8]
// folds once, an IntID[uint64] four times.
type IntID[V UnsignedInt] struct {
	id V
}

// MakeIntID returns an identifier wrapping v.
func MakeIntID[V UnsignedInt](v V) IntID[V] {
	return IntID[V]{id: v}
}

// Value returns the wrapped integer.
func (id IntID[V]) Value() V {
	return id.id
}

func (id IntID[V]) Equal(other IntID[V]) bool {
	return id.id == other.id
}

func (id IntID[V]) Hash() uint {
	return integerHash(intIDMinIndexWidth, id.MaxIndexBitWidth(), uint64(id.id))
}

func (id IntID[V]) MinIndexBitWidth() uint {
	return intIDMinIndexWidth
}

func (id IntID[V]) MaxIndexBitWidth() uint {
	var v V
	return uint(unsafe.Sizeof(v)) * 8
}

// StringMode selects who owns the bytes backing a StringID.
type StringMode uint8

const (
	// StringBorrowed aliases the caller's string. The caller must keep the
	// backing bytes alive (and in particular must not let them be a view
	// into storage it will reuse) for as long as any record carrying the
	// identifier is installed.
	StringBorrowed StringMode = iota
	// StringOwned clones the string on construction, detaching the
	// identifier from whatever larger allocation the caller's string may
	// have been a view into.
	StringOwned
)

const (
	stringIDMinIndexWidth = 8
	stringIDMaxIndexWidth = 32
)

// StringID is a byte-string identifier, typically a resource or channel
// name. The zero value is undefined: it hashes to zero and compares unequal
// to every identifier, including itself, so a record whose name was never
// assigned can never be found.
type StringID struct {
	name    string
	defined bool
}

// MakeStringID returns an identifier for name. Hashing stops at the first
// NUL byte, so names are NUL-free in practice.
func MakeStringID(name string, mode StringMode) StringID {
	if mode == StringOwned {
		name = strings.Clone(name)
	}
	return StringID{name: name, defined: true}
}

// Name returns the resource name, or "" for the undefined identifier.
func (id StringID) Name() string {
	return id.name
}

func (id StringID) Equal(other StringID) bool {
	return id.defined && other.defined && id.name == other.name
}

func (id StringID) Hash() uint {
	if !id.defined {
		return 0
	}
	return stringHash(id.name)
}

func (id StringID) MinIndexBitWidth() uint {
	return stringIDMinIndexWidth
}

func (id StringID) MaxIndexBitWidth() uint {
	return stringIDMaxIndexWidth
}

// Show prints the identifier at diagnostic level 3 and above.
func (id StringID) Show(level uint) {
	if level > 2 {
		fmt.Printf("resource id = %s\n", id.name)
	}
}
