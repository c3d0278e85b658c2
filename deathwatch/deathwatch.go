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

// Package deathwatch implements spec.md component C5: it observes the
// liveness of a client's reclaim-callback endpoint and, on loss of
// liveness, triggers an unregister path. Grounded on
// seccomp/pidTracker.go's per-key tracked-table pattern, adapted from a
// refcounted lock table to a per-client watch goroutine.
package deathwatch

import "sync"

// Watchable is implemented by a reclaim callback that wants death-watch
// support. Done must return a channel that is closed exactly once, when
// the callback's endpoint is no longer reachable. Callbacks that don't
// implement this interface simply never trigger an automatic unregister
// -- the caller must unregister them explicitly.
type Watchable interface {
	Done() <-chan struct{}
}

// Watcher tracks one watch goroutine per client id and invokes onDeath
// exactly once when the client's callback endpoint dies. onDeath is
// expected to route back through the arbiter's unregister path under the
// global mutex (spec.md section 4.5); the watcher itself holds no arbiter
// lock.
type Watcher struct {
	mu       sync.Mutex
	stopChan map[uint64]chan struct{}
	onDeath  func(clientID uint64)
}

// NewWatcher builds a death watcher that calls onDeath when a watched
// client's callback dies.
func NewWatcher(onDeath func(clientID uint64)) *Watcher {
	return &Watcher{
		stopChan: make(map[uint64]chan struct{}),
		onDeath:  onDeath,
	}
}

// Watch registers a death-watch for clientID against cb. Registration is
// idempotent (a second Watch for the same clientID while the first is
// still active is a no-op) and a nil or non-Watchable callback is
// accepted silently -- spec.md section 4.5: "a null callback is accepted
// silently (no death-watch established)".
func (w *Watcher) Watch(clientID uint64, cb interface{}) {
	if cb == nil {
		return
	}
	watchable, ok := cb.(Watchable)
	if !ok {
		return
	}

	w.mu.Lock()
	if _, already := w.stopChan[clientID]; already {
		w.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	w.stopChan[clientID] = stop
	w.mu.Unlock()

	go w.watch(clientID, watchable, stop)
}

func (w *Watcher) watch(clientID uint64, watchable Watchable, stop chan struct{}) {
	select {
	case <-watchable.Done():
		w.mu.Lock()
		delete(w.stopChan, clientID)
		w.mu.Unlock()
		w.onDeath(clientID)
	case <-stop:
		// Explicit Forget -- the client already unregistered through some
		// other path, nothing more to do here.
	}
}

// Forget stops watching clientID without invoking onDeath. Package
// arbiter calls this from the normal (non-death) unregister path so a
// later callback death doesn't fire a redundant unregister.
func (w *Watcher) Forget(clientID uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	stop, ok := w.stopChan[clientID]
	if !ok {
		return
	}
	delete(w.stopChan, clientID)
	close(stop)
}

// Tracking reports whether clientID currently has an active watch --
// exclusively for tests.
func (w *Watcher) Tracking(clientID uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.stopChan[clientID]
	return ok
}
