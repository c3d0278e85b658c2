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

package arbiter

import (
	"github.com/nestybox/tuner-arbiterd/handle"
	"github.com/nestybox/tuner-arbiterd/registry"
)

// RequestCAS implements spec.md section 4.7.5 for CAS sessions: a counted
// semaphore per system id, auto-created unbounded on first reference. A
// client may hold at most one CAS session at a time. CAS/CiCam handles
// encode no resource identity (system ids are not bounded to a byte);
// callers must supply systemID again on release, and Decode's resourceID
// is always 0 for this handle.Type.
func (a *Arbiter) RequestCAS(clientID uint64, systemID uint32) (handle.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	client, ok := a.clients.Get(clientID)
	if !ok {
		return handle.Invalid, ErrUnregistered
	}
	if _, already := client.InUseCASSystemID(); already {
		return handle.Invalid, ErrBusy
	}

	a.engine.Refresh(client)
	cas := a.resources.EnsureCAS(systemID)

	if cas.UsedSessions() < cas.MaxSessions {
		cas.Owners[clientID] = struct{}{}
		client.SetCASSystemID(systemID)
		a.metrics.ObserveGrant(handle.Cas)
		return a.encodeHandle(handle.Cas, 0), nil
	}

	owners := a.rankCASOwners(cas.Owners)
	if len(owners) == 0 || client.Priority() <= owners[0].priority {
		a.metrics.ObserveDeny(handle.Cas)
		return handle.Invalid, ErrDenied
	}

	victim, ok := a.clients.Get(owners[0].id)
	if !ok {
		return handle.Invalid, ErrDenied
	}
	if err := a.notifyReclaim(victim); err != nil {
		return handle.Invalid, err
	}
	delete(cas.Owners, owners[0].id)
	victim.ClearCASSystemID()
	a.metrics.ObserveReclaim(handle.Cas)

	cas.Owners[clientID] = struct{}{}
	client.SetCASSystemID(systemID)
	a.metrics.ObserveGrant(handle.Cas)
	return a.encodeHandle(handle.Cas, 0), nil
}

// ReleaseCAS implements the release half: systemID must match what the
// client currently holds.
func (a *Arbiter) ReleaseCAS(h handle.Handle, clientID uint64, systemID uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !handle.Validate(h, handle.Cas) {
		return ErrBadHandle
	}

	client, ok := a.clients.Get(clientID)
	if !ok {
		return ErrUnregistered
	}
	held, ok := client.InUseCASSystemID()
	if !ok || held != systemID {
		return ErrNotOwner
	}

	cas, ok := a.resources.CAS(systemID)
	if !ok {
		return ErrUnknownResource
	}
	delete(cas.Owners, clientID)
	client.ClearCASSystemID()
	return nil
}

func (a *Arbiter) releaseClientCASLocked(client *registry.ClientProfile) {
	systemID, ok := client.InUseCASSystemID()
	if !ok {
		return
	}
	if cas, ok := a.resources.CAS(systemID); ok {
		delete(cas.Owners, client.ID())
	}
	client.ClearCASSystemID()
}

// rankCASOwners returns owners ranked ascending by (refreshed) priority,
// ties broken newest-registrant-first -- the shrink policy spec.md
// section 9 resolves for the CAS/CiCam "who gets shed" open question.
func (a *Arbiter) rankCASOwners(owners map[uint64]struct{}) []casOwnerPriority {
	ranked := make([]casOwnerPriority, 0, len(owners))
	for id := range owners {
		owner, ok := a.clients.Get(id)
		if !ok {
			continue
		}
		a.engine.Refresh(owner)
		ranked = append(ranked, casOwnerPriority{id: id, priority: owner.Priority()})
	}
	sortByPriorityThenNewest(ranked)
	return ranked
}
