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

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedTableAscendingOrder(t *testing.T) {
	tbl := NewOrderedTable[int]()
	tbl.Insert(5, 50)
	tbl.Insert(1, 10)
	tbl.Insert(3, 30)

	assert.Equal(t, []int{10, 30, 50}, tbl.Ascending())
}

func TestOrderedTableGetDelete(t *testing.T) {
	tbl := NewOrderedTable[string]()
	tbl.Insert(2, "two")

	v, ok := tbl.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "two", v)

	v, ok = tbl.Delete(2)
	assert.True(t, ok)
	assert.Equal(t, "two", v)

	_, ok = tbl.Get(2)
	assert.False(t, ok)
}

func TestOrderedTableSnapshotIsolation(t *testing.T) {
	tbl := NewOrderedTable[int]()
	tbl.Insert(1, 100)

	snap := tbl.Snapshot()
	tbl.Insert(2, 200)

	assert.Equal(t, 1, snap.Len(), "snapshot must not observe post-snapshot mutations")
	assert.Equal(t, 2, tbl.Len())
}

func TestOrderedTableClear(t *testing.T) {
	tbl := NewOrderedTable[int]()
	tbl.Insert(1, 1)
	tbl.Insert(2, 2)

	tbl.Clear()

	assert.Equal(t, 0, tbl.Len())
}
