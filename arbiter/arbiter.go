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

// Package arbiter implements spec.md component C7, the behavioral core:
// grant, share, release and reclaim policy for every resource kind, live
// HAL reconfiguration, and the snapshot operations. It owns the single
// global mutex spec.md section 5 and section 9 require -- registry,
// priority and deathwatch hold no locks of their own, so every exported
// method here takes the mutex for its whole duration, including the
// reclaim callbacks it invokes synchronously.
package arbiter

import (
	"sort"
	"sync"

	"github.com/nestybox/tuner-arbiterd/deathwatch"
	"github.com/nestybox/tuner-arbiterd/handle"
	"github.com/nestybox/tuner-arbiterd/priority"
	"github.com/nestybox/tuner-arbiterd/registry"
)

// Arbiter is the top-level aggregate spec.md section 9 describes: one
// mutex guarding the client registry, the resource registry and the
// priority engine together, so a reclaim decision is always made against
// a consistent view.
type Arbiter struct {
	mu sync.Mutex

	table     *priority.Table
	engine    *priority.Engine
	clients   *registry.ClientRegistry
	resources *registry.ResourceRegistry
	watcher   *deathwatch.Watcher
	counter   handle.Counter
	metrics   MetricsSink
}

// New builds an arbiter around a priority table and a foreground oracle.
// metrics may be nil, in which case events are discarded.
func New(table *priority.Table, oracle priority.Oracle, metrics MetricsSink) *Arbiter {
	if metrics == nil {
		metrics = noopMetrics{}
	}

	clients := registry.NewClientRegistry()
	a := &Arbiter{
		table:     table,
		clients:   clients,
		resources: registry.NewResourceRegistry(),
		metrics:   metrics,
	}
	a.engine = priority.NewEngine(table, oracle, clients)
	a.watcher = deathwatch.NewWatcher(a.onClientDeath)
	return a
}

// onClientDeath is the death-watch callback (spec.md section 4.5): it
// re-enters the mutex and performs the same cleanup an explicit
// Unregister would, since the watcher itself holds no lock.
func (a *Arbiter) onClientDeath(clientID uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unregisterLocked(clientID)
}

// Register implements spec.md section 4.4's register operation. cb may be
// nil (no reclaim notification, no death-watch) or implement
// deathwatch.Watchable for automatic cleanup on endpoint death.
func (a *Arbiter) Register(useCase priority.UseCase, sessionTag string, processID uint32, cb registry.ReclaimCallback) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.table.IsDefined(useCase) {
		return 0, ErrUnknownUseCase
	}

	client := a.clients.Register(useCase, sessionTag, processID, cb)
	if cb != nil {
		a.watcher.Watch(client.ID(), cb)
	}
	return client.ID(), nil
}

// Unregister releases every resource the client holds or shares and
// removes it from the registry. It is a no-op if the id is unknown
// (spec.md section 6).
func (a *Arbiter) Unregister(clientID uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unregisterLocked(clientID)
}

func (a *Arbiter) unregisterLocked(clientID uint64) {
	client, ok := a.clients.Get(clientID)
	if !ok {
		return
	}

	a.releaseClientFrontendsLocked(client)
	a.releaseClientLnbsLocked(client)
	a.releaseClientCASLocked(client)
	a.releaseClientCiCamLocked(client)

	a.watcher.Forget(clientID)
	a.clients.Unregister(clientID)
}

// UpdatePriority implements spec.md section 6's update_priority: it
// freezes the client's priority at an explicit value until the client (or
// a future call) overrides it again (spec.md section 4.6).
func (a *Arbiter) UpdatePriority(clientID uint64, priorityVal, niceValue int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	client, ok := a.clients.Get(clientID)
	if !ok {
		return ErrUnregistered
	}
	client.SetPriorityOverride(priorityVal, niceValue)
	return nil
}

// --- shared helpers --------------------------------------------------

func (a *Arbiter) encodeHandle(t handle.Type, resourceID uint8) handle.Handle {
	return handle.Encode(t, resourceID, a.counter.Next())
}

// notifyReclaim invokes c's reclaim callback, if any, and reports whether
// it failed. Used on the deniable path (an actual reclaim contest), where
// a callback error must abort the whole request.
func (a *Arbiter) notifyReclaim(c *registry.ClientProfile) error {
	cb := c.ReclaimCallback()
	if cb == nil {
		return nil
	}
	if err := cb.OnReclaim(); err != nil {
		return ErrReclaimFailed
	}
	return nil
}

// notifyReclaimBestEffort invokes c's reclaim callback on a non-deniable
// path -- HAL-driven reconfiguration or a CAS/CiCam session-limit change --
// where the outcome can't be refused, so a callback error is ignored.
func (a *Arbiter) notifyReclaimBestEffort(c *registry.ClientProfile) {
	if cb := c.ReclaimCallback(); cb != nil {
		_ = cb.OnReclaim()
	}
}

// sortByPriorityThenNewest orders owner ids ascending by priority, and
// among equal priorities, descending by id (spec.md section 9's
// resolution for the CAS/CiCam shrink open question: ties are broken by
// shedding the most recently registered client first).
func sortByPriorityThenNewest(owners []casOwnerPriority) {
	sort.Slice(owners, func(i, j int) bool {
		if owners[i].priority != owners[j].priority {
			return owners[i].priority < owners[j].priority
		}
		return owners[i].id > owners[j].id
	})
}

type casOwnerPriority struct {
	id       uint64
	priority int
}
