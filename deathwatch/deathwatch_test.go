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

package deathwatch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCallback struct {
	done chan struct{}
}

func newFakeCallback() *fakeCallback {
	return &fakeCallback{done: make(chan struct{})}
}

func (f *fakeCallback) Done() <-chan struct{} { return f.done }
func (f *fakeCallback) kill()                 { close(f.done) }

type notWatchable struct{}

func TestWatchInvokesOnDeathWhenCallbackDies(t *testing.T) {
	var mu sync.Mutex
	var died uint64
	var wg sync.WaitGroup
	wg.Add(1)

	w := NewWatcher(func(clientID uint64) {
		mu.Lock()
		died = clientID
		mu.Unlock()
		wg.Done()
	})

	cb := newFakeCallback()
	w.Watch(7, cb)
	require.True(t, w.Tracking(7))

	cb.kill()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, uint64(7), died)
}

func TestWatchIsIdempotent(t *testing.T) {
	w := NewWatcher(func(uint64) {})
	cb := newFakeCallback()

	w.Watch(1, cb)
	w.Watch(1, cb)

	assert.True(t, w.Tracking(1))
}

func TestWatchAcceptsNilCallbackSilently(t *testing.T) {
	called := false
	w := NewWatcher(func(uint64) { called = true })

	assert.NotPanics(t, func() { w.Watch(1, nil) })
	assert.False(t, w.Tracking(1))
	assert.False(t, called)
}

func TestWatchIgnoresNonWatchableCallback(t *testing.T) {
	w := NewWatcher(func(uint64) {})
	w.Watch(1, notWatchable{})
	assert.False(t, w.Tracking(1))
}

func TestForgetStopsWatchWithoutFiringOnDeath(t *testing.T) {
	fired := false
	w := NewWatcher(func(uint64) { fired = true })

	cb := newFakeCallback()
	w.Watch(1, cb)
	w.Forget(1)

	time.Sleep(20 * time.Millisecond)
	assert.False(t, w.Tracking(1))
	assert.False(t, fired)
}
