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

// RequestCiCam mirrors RequestCAS for CiCam sessions (spec.md section
// 4.7.5 treats the two resource kinds identically, tracked separately).
func (a *Arbiter) RequestCiCam(clientID uint64, cicamID uint32) (handle.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	client, ok := a.clients.Get(clientID)
	if !ok {
		return handle.Invalid, ErrUnregistered
	}
	if _, already := client.InUseCiCamID(); already {
		return handle.Invalid, ErrBusy
	}

	a.engine.Refresh(client)
	cicam := a.resources.EnsureCiCam(cicamID)

	if cicam.UsedSessions() < cicam.MaxSessions {
		cicam.Owners[clientID] = struct{}{}
		client.SetCiCamID(cicamID)
		a.metrics.ObserveGrant(handle.CiCam)
		return a.encodeHandle(handle.CiCam, 0), nil
	}

	owners := a.rankCiCamOwners(cicam.Owners)
	if len(owners) == 0 || client.Priority() <= owners[0].priority {
		a.metrics.ObserveDeny(handle.CiCam)
		return handle.Invalid, ErrDenied
	}

	victim, ok := a.clients.Get(owners[0].id)
	if !ok {
		return handle.Invalid, ErrDenied
	}
	if err := a.notifyReclaim(victim); err != nil {
		return handle.Invalid, err
	}
	delete(cicam.Owners, owners[0].id)
	victim.ClearCiCamID()
	a.metrics.ObserveReclaim(handle.CiCam)

	cicam.Owners[clientID] = struct{}{}
	client.SetCiCamID(cicamID)
	a.metrics.ObserveGrant(handle.CiCam)
	return a.encodeHandle(handle.CiCam, 0), nil
}

// ReleaseCiCam mirrors ReleaseCAS.
func (a *Arbiter) ReleaseCiCam(h handle.Handle, clientID uint64, cicamID uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !handle.Validate(h, handle.CiCam) {
		return ErrBadHandle
	}

	client, ok := a.clients.Get(clientID)
	if !ok {
		return ErrUnregistered
	}
	held, ok := client.InUseCiCamID()
	if !ok || held != cicamID {
		return ErrNotOwner
	}

	cicam, ok := a.resources.CiCam(cicamID)
	if !ok {
		return ErrUnknownResource
	}
	delete(cicam.Owners, clientID)
	client.ClearCiCamID()
	return nil
}

func (a *Arbiter) releaseClientCiCamLocked(client *registry.ClientProfile) {
	cicamID, ok := client.InUseCiCamID()
	if !ok {
		return
	}
	if cicam, ok := a.resources.CiCam(cicamID); ok {
		delete(cicam.Owners, client.ID())
	}
	client.ClearCiCamID()
}

func (a *Arbiter) rankCiCamOwners(owners map[uint64]struct{}) []casOwnerPriority {
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
