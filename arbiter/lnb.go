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

// RequestLnb implements spec.md section 4.7.4: LNBs carry no exclusive
// groups and no sharing, but are still reclaimable -- a client may hold
// more than one simultaneously, unlike frontends.
func (a *Arbiter) RequestLnb(clientID uint64) (handle.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	client, ok := a.clients.Get(clientID)
	if !ok {
		return handle.Invalid, ErrUnregistered
	}

	a.engine.Refresh(client)

	var free *handleableLnb
	var candidate *handleableLnb
	haveCandidate := false
	lowestPriority := 0

	for _, lnb := range a.resources.Lnbs() {
		if !lnb.Owned {
			if free == nil {
				free = &handleableLnb{id: lnb.ID}
			}
			continue
		}
		owner, ok := a.clients.Get(lnb.OwnerClientID)
		if !ok {
			continue
		}
		a.engine.Refresh(owner)
		p := owner.Priority()
		if !haveCandidate || p < lowestPriority {
			lowestPriority = p
			candidate = &handleableLnb{id: lnb.ID, ownerID: lnb.OwnerClientID}
			haveCandidate = true
		}
	}

	if free != nil {
		a.grantLnb(free.id, client)
		a.metrics.ObserveGrant(handle.Lnb)
		return a.encodeHandle(handle.Lnb, free.id), nil
	}

	if !haveCandidate || client.Priority() <= lowestPriority {
		a.metrics.ObserveDeny(handle.Lnb)
		return handle.Invalid, ErrDenied
	}

	owner, _ := a.clients.Get(candidate.ownerID)
	if err := a.notifyReclaim(owner); err != nil {
		return handle.Invalid, err
	}
	owner.RemoveLnb(candidate.id)
	a.metrics.ObserveReclaim(handle.Lnb)

	a.grantLnb(candidate.id, client)
	a.metrics.ObserveGrant(handle.Lnb)
	return a.encodeHandle(handle.Lnb, candidate.id), nil
}

type handleableLnb struct {
	id      uint8
	ownerID uint64
}

func (a *Arbiter) grantLnb(id uint8, client *registry.ClientProfile) {
	if lnb, ok := a.resources.Lnb(id); ok {
		lnb.Owned = true
		lnb.OwnerClientID = client.ID()
	}
	client.AddLnb(id)
}

// ReleaseLnb implements the LNB half of spec.md section 4.7.3/4.7.4: a
// client may only release an LNB it owns.
func (a *Arbiter) ReleaseLnb(h handle.Handle, clientID uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !handle.Validate(h, handle.Lnb) {
		return ErrBadHandle
	}
	_, resourceID := handle.Decode(h)

	lnb, ok := a.resources.Lnb(resourceID)
	if !ok {
		return ErrUnknownResource
	}
	if !lnb.Owned || lnb.OwnerClientID != clientID {
		return ErrNotOwner
	}

	client, ok := a.clients.Get(clientID)
	if !ok {
		return ErrUnregistered
	}

	lnb.Owned = false
	lnb.OwnerClientID = 0
	client.RemoveLnb(resourceID)
	return nil
}

// releaseClientLnbsLocked frees every LNB client holds, on the
// unregister/death-watch path.
func (a *Arbiter) releaseClientLnbsLocked(client *registry.ClientProfile) {
	for id := range client.InUseLnbs() {
		if lnb, ok := a.resources.Lnb(id); ok {
			lnb.Owned = false
			lnb.OwnerClientID = 0
		}
	}
}
