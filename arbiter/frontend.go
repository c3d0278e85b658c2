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

// RequestFrontend implements spec.md section 4.7.1. It grants the first
// unused frontend of typ that carries no exclusive-group entanglement, falls
// back to any unused frontend of typ, and failing that reclaims the
// lowest-priority in-use frontend of typ if the requesting client
// outranks it strictly. Candidates are scanned in ascending id order
// (registry.FrontendsByType's contract).
func (a *Arbiter) RequestFrontend(clientID uint64, typ string) (handle.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	client, ok := a.clients.Get(clientID)
	if !ok {
		return handle.Invalid, ErrUnregistered
	}
	if client.HasFrontend() {
		return handle.Invalid, ErrBusy
	}

	a.engine.Refresh(client)

	var idealFree, anyFree, candidate *registry.FrontendResource
	haveCandidate := false
	lowestPriority := 0

	for _, fe := range a.resources.FrontendsByType(typ) {
		if !fe.Owned {
			if idealFree == nil && len(fe.ExclusiveGroupMembers) == 0 {
				idealFree = fe
			}
			if anyFree == nil {
				anyFree = fe
			}
			continue
		}

		owner, ok := a.clients.Get(fe.OwnerClientID)
		if !ok {
			continue
		}
		p := a.engine.HighestForFrontend(owner)
		if !haveCandidate || p < lowestPriority {
			lowestPriority = p
			candidate = fe
			haveCandidate = true
		}
	}

	grantTarget := idealFree
	if grantTarget == nil {
		grantTarget = anyFree
	}
	if grantTarget != nil {
		a.grantFrontendGroup(grantTarget, client)
		a.metrics.ObserveGrant(handle.Frontend)
		return a.encodeHandle(handle.Frontend, grantTarget.ID), nil
	}

	if !haveCandidate || client.Priority() <= lowestPriority {
		a.metrics.ObserveDeny(handle.Frontend)
		return handle.Invalid, ErrDenied
	}

	owner, _ := a.clients.Get(candidate.OwnerClientID)
	if err := a.reclaimFrontendOwner(owner); err != nil {
		return handle.Invalid, err
	}

	a.grantFrontendGroup(candidate, client)
	a.metrics.ObserveGrant(handle.Frontend)
	return a.encodeHandle(handle.Frontend, candidate.ID), nil
}

// ShareFrontend implements spec.md section 4.7.2: selfID attaches to
// targetID's already-granted frontend. The sharer counts as holding a
// frontend for the Busy check and is refreshed alongside the owner at
// every future reclaim decision (priority.Engine.HighestForFrontend).
func (a *Arbiter) ShareFrontend(selfID, targetID uint64) (handle.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	self, ok := a.clients.Get(selfID)
	if !ok {
		return handle.Invalid, ErrUnregistered
	}
	target, ok := a.clients.Get(targetID)
	if !ok {
		return handle.Invalid, ErrUnregistered
	}
	if self.HasFrontend() {
		return handle.Invalid, ErrBusy
	}
	if !target.HasFrontend() {
		return handle.Invalid, ErrTargetHasNoFrontend
	}

	target.AddSharee(selfID)

	var primary uint8
	for id := range target.InUseFrontends() {
		self.AddFrontend(id)
		primary = id
	}

	return a.encodeHandle(handle.Frontend, primary), nil
}

// ReleaseFrontend implements spec.md section 4.7.3. An owner's release
// tears down the whole exclusive-group session and evicts every sharee;
// a sharee's release only detaches itself.
func (a *Arbiter) ReleaseFrontend(h handle.Handle, clientID uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !handle.Validate(h, handle.Frontend) {
		return ErrBadHandle
	}
	_, resourceID := handle.Decode(h)

	fe, ok := a.resources.Frontend(resourceID)
	if !ok {
		return ErrUnknownResource
	}
	client, ok := a.clients.Get(clientID)
	if !ok {
		return ErrUnregistered
	}

	if fe.Owned && fe.OwnerClientID == clientID {
		a.clearFrontendOwnership(client)
		return nil
	}

	if fe.Owned {
		if owner, ok := a.clients.Get(fe.OwnerClientID); ok {
			if _, isSharee := ownerSharees(owner)[clientID]; isSharee {
				owner.RemoveSharee(clientID)
				client.ClearFrontends()
				return nil
			}
		}
	}

	return ErrNotOwner
}

func ownerSharees(owner *registry.ClientProfile) map[uint64]struct{} {
	out := make(map[uint64]struct{})
	for _, id := range owner.ShareFEClients() {
		out[id] = struct{}{}
	}
	return out
}

// grantFrontendGroup marks fe and every exclusive-group sibling as owned
// by client and records all of their ids in the client's in-use set, so a
// single release (or reclaim) tears down the whole entangled group.
func (a *Arbiter) grantFrontendGroup(fe *registry.FrontendResource, client *registry.ClientProfile) {
	fe.Owned = true
	fe.OwnerClientID = client.ID()
	client.AddFrontend(fe.ID)

	for memberID := range fe.ExclusiveGroupMembers {
		if member, ok := a.resources.Frontend(memberID); ok {
			member.Owned = true
			member.OwnerClientID = client.ID()
			client.AddFrontend(memberID)
		}
	}
}

// clearFrontendOwnership frees every frontend owner currently holds,
// evicts every sharee (clearing their in-use set too, without notifying
// them -- they are expected to notice on their next operation), and empties
// owner's own bookkeeping.
func (a *Arbiter) clearFrontendOwnership(owner *registry.ClientProfile) {
	for id := range owner.InUseFrontends() {
		if fe, ok := a.resources.Frontend(id); ok {
			fe.Owned = false
			fe.OwnerClientID = 0
		}
	}

	for _, shareeID := range owner.ShareFEClients() {
		if sharee, ok := a.clients.Get(shareeID); ok {
			sharee.ClearFrontends()
		}
		owner.RemoveSharee(shareeID)
	}

	owner.ClearFrontends()
}

// reclaimFrontendOwner notifies owner and every sharee of owner's
// frontend, aborting without mutating any state if any callback fails
// (spec.md section 4.7.7). Only on unanimous success does it actually
// free the group.
func (a *Arbiter) reclaimFrontendOwner(owner *registry.ClientProfile) error {
	recipients := make([]*registry.ClientProfile, 0, 1+len(owner.ShareFEClients()))
	recipients = append(recipients, owner)
	for _, sid := range owner.ShareFEClients() {
		if c, ok := a.clients.Get(sid); ok {
			recipients = append(recipients, c)
		}
	}

	for _, c := range recipients {
		if err := a.notifyReclaim(c); err != nil {
			return err
		}
	}

	a.clearFrontendOwnership(owner)
	a.metrics.ObserveReclaim(handle.Frontend)
	return nil
}

// releaseClientFrontendsLocked tears down client's frontend session (as
// owner or as sharee) on unregister/death-watch paths. No reclaim callback
// is invoked here -- the client is gone either way.
func (a *Arbiter) releaseClientFrontendsLocked(client *registry.ClientProfile) {
	if !client.HasFrontend() {
		return
	}

	for id := range client.InUseFrontends() {
		if fe, ok := a.resources.Frontend(id); ok && fe.OwnerClientID == client.ID() {
			a.clearFrontendOwnership(client)
			return
		}
	}

	// Sharee path: detach from whichever owner listed this client.
	for _, fe := range a.resources.Frontends() {
		if !fe.Owned {
			continue
		}
		owner, ok := a.clients.Get(fe.OwnerClientID)
		if !ok {
			continue
		}
		if _, isSharee := ownerSharees(owner)[client.ID()]; isSharee {
			owner.RemoveSharee(client.ID())
		}
	}
	client.ClearFrontends()
}
