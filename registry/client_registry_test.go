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

	"github.com/nestybox/tuner-arbiterd/priority"
)

func TestRegisterAssignsMonotonicIDs(t *testing.T) {
	cr := NewClientRegistry()

	c1 := cr.Register(priority.Live, "", 100, nil)
	c2 := cr.Register(priority.Live, "", 101, nil)

	assert.NotEqual(t, c1.ID(), c2.ID())
	assert.Less(t, c1.ID(), c2.ID())
}

func TestUnregisterIsNoopIfAbsent(t *testing.T) {
	cr := NewClientRegistry()
	assert.NotPanics(t, func() { cr.Unregister(999) })
}

func TestUnregisterRemovesClient(t *testing.T) {
	cr := NewClientRegistry()
	c := cr.Register(priority.Live, "", 1, nil)

	cr.Unregister(c.ID())

	_, ok := cr.Get(c.ID())
	assert.False(t, ok)
}

func TestIDsNeverReusedWithinProcess(t *testing.T) {
	cr := NewClientRegistry()
	c1 := cr.Register(priority.Live, "", 1, nil)
	cr.Unregister(c1.ID())

	c2 := cr.Register(priority.Live, "", 1, nil)
	assert.NotEqual(t, c1.ID(), c2.ID())
}

func TestLookupSatisfiesPriorityLookup(t *testing.T) {
	cr := NewClientRegistry()
	c := cr.Register(priority.Playback, "", 1, nil)

	var lookup priority.Lookup = cr
	found, ok := lookup.Lookup(c.ID())
	assert.True(t, ok)
	assert.Equal(t, c.ID(), found.ID())
}
