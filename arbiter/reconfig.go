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

// SetFrontendInfoList implements spec.md section 4.7.8's live HAL
// reconfiguration for frontends. When an owned frontend's id disappears
// from the new list, its owner and sharees are notified best-effort and
// that id is dropped from their in-use sets; an owner left with no
// frontend loses its sharees too. Frontends whose id persists keep their
// current owner. The registry is then rebuilt from scratch so
// exclusive-group membership reflects the new list exactly.
func (a *Arbiter) SetFrontendInfoList(infos []registry.FrontendInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()

	wanted := make(map[uint8]struct{}, len(infos))
	for _, info := range infos {
		wanted[info.ID] = struct{}{}
	}

	old := a.resources.Frontends()
	oldByID := make(map[uint8]*registry.FrontendResource, len(old))
	revokedOwners := make(map[uint64]struct{})
	removedIDs := make(map[uint8]struct{})
	for _, fe := range old {
		oldByID[fe.ID] = fe
		if _, keep := wanted[fe.ID]; !keep && fe.Owned {
			revokedOwners[fe.OwnerClientID] = struct{}{}
			removedIDs[fe.ID] = struct{}{}
		}
	}

	for ownerID := range revokedOwners {
		owner, ok := a.clients.Get(ownerID)
		if !ok {
			continue
		}
		a.notifyReclaimBestEffort(owner)
		for _, sid := range owner.ShareFEClients() {
			if sharee, ok := a.clients.Get(sid); ok {
				a.notifyReclaimBestEffort(sharee)
				for id := range removedIDs {
					sharee.RemoveFrontend(id)
				}
			}
		}
		for id := range removedIDs {
			owner.RemoveFrontend(id)
		}
		if !owner.HasFrontend() {
			a.clearFrontendOwnership(owner)
		}
		a.metrics.ObserveReclaim(handle.Frontend)
	}

	for _, fe := range old {
		a.resources.RemoveFrontend(fe.ID)
	}
	for _, info := range infos {
		nfe := a.resources.AddFrontend(info)
		prev, existed := oldByID[info.ID]
		if !existed || !prev.Owned {
			continue
		}
		nfe.Owned = true
		nfe.OwnerClientID = prev.OwnerClientID
	}
}

// SetLnbInfoList mirrors SetFrontendInfoList for LNBs. LNBs carry no
// exclusive-group or sharing semantics, so losing one id only affects
// that id's own owner, not the owner's other holdings.
func (a *Arbiter) SetLnbInfoList(infos []registry.LnbInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()

	wanted := make(map[uint8]struct{}, len(infos))
	for _, info := range infos {
		wanted[info.ID] = struct{}{}
	}

	old := a.resources.Lnbs()
	oldByID := make(map[uint8]*registry.LnbResource, len(old))
	revokedIDs := make(map[uint8]struct{})
	for _, lnb := range old {
		oldByID[lnb.ID] = lnb
		if _, keep := wanted[lnb.ID]; !keep && lnb.Owned {
			if owner, ok := a.clients.Get(lnb.OwnerClientID); ok {
				a.notifyReclaimBestEffort(owner)
				owner.RemoveLnb(lnb.ID)
				a.metrics.ObserveReclaim(handle.Lnb)
			}
			revokedIDs[lnb.ID] = struct{}{}
		}
	}

	for _, lnb := range old {
		a.resources.RemoveLnb(lnb.ID)
	}
	for _, info := range infos {
		nlnb := a.resources.AddLnb(info)
		prev, existed := oldByID[info.ID]
		if !existed || !prev.Owned {
			continue
		}
		if _, revoked := revokedIDs[info.ID]; revoked {
			continue
		}
		nlnb.Owned = true
		nlnb.OwnerClientID = prev.OwnerClientID
	}
}

// UpdateCASInfo implements spec.md section 4.7.8's CAS reconfiguration,
// including the shrink policy spec.md section 9 resolves: when a lower
// limit forces eviction, the lowest-priority owners are shed first, ties
// broken by shedding the most recently registered client.
func (a *Arbiter) UpdateCASInfo(systemID uint32, maxSessions int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if maxSessions == 0 {
		if cas, ok := a.resources.CAS(systemID); ok {
			for id := range cas.Owners {
				if owner, ok := a.clients.Get(id); ok {
					a.notifyReclaimBestEffort(owner)
					owner.ClearCASSystemID()
				}
			}
		}
		a.resources.SetCASMax(systemID, 0)
		return
	}

	cas := a.resources.SetCASMax(systemID, maxSessions)
	if cas.UsedSessions() <= cas.MaxSessions {
		return
	}

	ranked := a.rankCASOwners(cas.Owners)
	evict := cas.UsedSessions() - cas.MaxSessions
	for i := 0; i < evict && i < len(ranked); i++ {
		victim, ok := a.clients.Get(ranked[i].id)
		if !ok {
			continue
		}
		a.notifyReclaimBestEffort(victim)
		delete(cas.Owners, ranked[i].id)
		victim.ClearCASSystemID()
		a.metrics.ObserveReclaim(handle.Cas)
	}
}

// UpdateCiCamInfo mirrors UpdateCASInfo for CiCam sessions. Not named in
// spec.md section 6's operation table, but added for symmetry since the
// CiCam resource is otherwise defined identically to CAS throughout the
// rest of the spec.
func (a *Arbiter) UpdateCiCamInfo(cicamID uint32, maxSessions int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if maxSessions == 0 {
		if cicam, ok := a.resources.CiCam(cicamID); ok {
			for id := range cicam.Owners {
				if owner, ok := a.clients.Get(id); ok {
					a.notifyReclaimBestEffort(owner)
					owner.ClearCiCamID()
				}
			}
		}
		a.resources.SetCiCamMax(cicamID, 0)
		return
	}

	cicam := a.resources.SetCiCamMax(cicamID, maxSessions)
	if cicam.UsedSessions() <= cicam.MaxSessions {
		return
	}

	ranked := a.rankCiCamOwners(cicam.Owners)
	evict := cicam.UsedSessions() - cicam.MaxSessions
	for i := 0; i < evict && i < len(ranked); i++ {
		victim, ok := a.clients.Get(ranked[i].id)
		if !ok {
			continue
		}
		a.notifyReclaimBestEffort(victim)
		delete(cicam.Owners, ranked[i].id)
		victim.ClearCiCamID()
		a.metrics.ObserveReclaim(handle.CiCam)
	}
}
