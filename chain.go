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

// Link is the intrusive chain pointer. Embed a Link[T] in every record type
// stored in a Table; the link field is the record's membership in its bucket
// chain, so inserting and removing a record performs no allocation. A record
// must not be linked into more than one chain at a time.
type Link[T any] struct {
	next *T
}

func (l *Link[T]) link() *Link[T] {
	return l
}

// Linked constrains a record pointer type to one that embeds a Link[T].
type Linked[T any] interface {
	*T
	link() *Link[T]
}

// Chain is a singly-linked list of records threaded through their embedded
// Link fields. The zero value is an empty chain. Chains are the bucket
// representation used by Table; they are exported so that a custom Allocator
// can produce bucket-head arrays.
type Chain[T any, PT Linked[T]] struct {
	head *T
}

// Empty reports whether the chain has no members.
func (c *Chain[T, PT]) Empty() bool {
	return c.head == nil
}

// First returns the front record, or nil if the chain is empty.
func (c *Chain[T, PT]) First() *T {
	return c.head
}

// PushFront links r at the head of the chain. r must not currently be a
// member of any chain.
func (c *Chain[T, PT]) PushFront(r *T) {
	PT(r).link().next = c.head
	c.head = r
}

// PopFront unlinks and returns the front record, or nil if the chain is
// empty.
func (c *Chain[T, PT]) PopFront() *T {
	r := c.head
	if r != nil {
		l := PT(r).link()
		c.head = l.next
		l.next = nil
	}
	return r
}

// RemoveAfter unlinks the successor of prev. prev must be a member of the
// chain.
func (c *Chain[T, PT]) RemoveAfter(prev *T) *T {
	pl := PT(prev).link()
	r := pl.next
	if r != nil {
		l := PT(r).link()
		pl.next = l.next
		l.next = nil
	}
	return r
}
