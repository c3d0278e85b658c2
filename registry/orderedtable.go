//
// Copyright 2019-2020 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package registry implements spec.md components C3 (Resource Registry),
// C4 (Client Registry) and C8 (Snapshot Store). None of the types here
// take their own lock -- spec.md section 9 is explicit that arbiter state
// is a single aggregate protected by one mutex and must not be split
// across per-object locks, so all synchronization lives one layer up, in
// package arbiter, exactly where the reclaim path needs to mutate many of
// these maps together.
package registry

import (
	iradix "github.com/hashicorp/go-immutable-radix"
)

// OrderedTable is a byte-keyed (0..255) ordered map used for the frontend
// and LNB tables. Grounded on domain/handler.go's use of the same
// go-immutable-radix tree for ordered dispatch; here it does double duty:
//
//   - spec.md section 4.7.1 step 3 requires scanning candidate frontends
//     "by iteration order, lowest id seen first" -- a radix tree keyed by a
//     single byte iterates in ascending numeric order for free.
//   - spec.md component C8 (Snapshot Store) needs store/clear/restore of a
//     whole resource map; because the underlying tree is persistent
//     (copy-on-write), Snapshot is an O(1) pointer copy.
type OrderedTable[V any] struct {
	tree *iradix.Tree
}

// NewOrderedTable returns an empty table.
func NewOrderedTable[V any]() *OrderedTable[V] {
	return &OrderedTable[V]{tree: iradix.New()}
}

func tableKey(id uint8) []byte {
	return []byte{id}
}

// Insert adds or replaces the value stored at id.
func (t *OrderedTable[V]) Insert(id uint8, v V) {
	tree, _, _ := t.tree.Insert(tableKey(id), v)
	t.tree = tree
}

// Delete removes id, returning the removed value if present.
func (t *OrderedTable[V]) Delete(id uint8) (V, bool) {
	tree, val, ok := t.tree.Delete(tableKey(id))
	t.tree = tree
	if !ok {
		var zero V
		return zero, false
	}
	return val.(V), true
}

// Get looks up id without mutating the table.
func (t *OrderedTable[V]) Get(id uint8) (V, bool) {
	val, ok := t.tree.Get(tableKey(id))
	if !ok {
		var zero V
		return zero, false
	}
	return val.(V), true
}

// Len returns the number of entries currently stored.
func (t *OrderedTable[V]) Len() int {
	return t.tree.Len()
}

// Ascending returns every stored value in ascending id order.
func (t *OrderedTable[V]) Ascending() []V {
	out := make([]V, 0, t.tree.Len())
	it := t.tree.Root().Iterator()
	for {
		_, v, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, v.(V))
	}
	return out
}

// Snapshot returns a table sharing the same underlying persistent tree.
// Because the tree is copy-on-write, further mutation of either table does
// not affect the other, so the copy costs a pointer, not a deep copy.
// Store/Restore in snapshot.go do not call it; they move the live table
// pointer itself.
func (t *OrderedTable[V]) Snapshot() *OrderedTable[V] {
	return &OrderedTable[V]{tree: t.tree}
}

// Clear empties the table in place.
func (t *OrderedTable[V]) Clear() {
	t.tree = iradix.New()
}
