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

import "math/bits"

const chronIDMinIndexWidth = 8

// ChronID is an unsigned integer identifier allocated in chronological
// sequence by a ChronTable.
type ChronID struct {
	id uint
}

// MakeChronID returns an identifier wrapping v. Records inserted through
// ChronTable.Add have their identifier assigned by the table; MakeChronID is
// for lookups and removals.
func MakeChronID(v uint) ChronID {
	return ChronID{id: v}
}

// Value returns the wrapped integer.
func (id ChronID) Value() uint {
	return id.id
}

func (id ChronID) Equal(other ChronID) bool {
	return id.id == other.id
}

func (id ChronID) Hash() uint {
	return integerHash(chronIDMinIndexWidth, id.MaxIndexBitWidth(), uint64(id.id))
}

func (id ChronID) MinIndexBitWidth() uint {
	return chronIDMinIndexWidth
}

func (id ChronID) MaxIndexBitWidth() uint {
	return bits.UintSize
}

// ChronRes supplies the identifier storage and chain link for records stored
// in a ChronTable. Embed it in the record type:
//
//	type circuit struct {
//	    restable.ChronRes[circuit]
//	    // payload ...
//	}
type ChronRes[T any] struct {
	id ChronID
	Link[T]
}

// ResourceID returns the identifier assigned by the table, or the zero
// identifier if the record was never installed.
func (r *ChronRes[T]) ResourceID() ChronID {
	return r.id
}

func (r *ChronRes[T]) setChronID(id uint) {
	r.id = ChronID{id: id}
}

// ChronEntry constrains record pointer types storable in a ChronTable; it is
// satisfied by embedding ChronRes.
type ChronEntry[T any] interface {
	Entry[T, ChronID]
	setChronID(uint)
}

// ChronTable is a Table keyed by chronologically allocated integer
// identifiers. Add assigns each record the next identifier from a
// monotonically increasing counter; lookup and removal work through the
// embedded Table.
type ChronTable[T any, PT ChronEntry[T]] struct {
	*Table[T, ChronID, PT]
	allocID uint
}

// NewChronTable constructs an empty chronological table.
func NewChronTable[T any, PT ChronEntry[T]](options ...option[T, ChronID, PT]) (*ChronTable[T, PT], error) {
	tab, err := New[T, ChronID, PT](options...)
	if err != nil {
		return nil, err
	}
	return &ChronTable[T, PT]{Table: tab, allocID: 1}, nil
}

// Add assigns res the next chronological identifier and installs it. When
// the counter has wrapped around and lands on an identifier that is still
// installed, the collision is skipped and the next value tried.
func (t *ChronTable[T, PT]) Add(res *T) {
	for {
		PT(res).setChronID(t.allocID)
		t.allocID++
		if t.Table.Add(res) == nil {
			return
		}
	}
}
