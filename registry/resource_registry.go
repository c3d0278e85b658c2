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

// FrontendInfo and LnbInfo describe a hardware resource as reported by the
// HAL through set_frontend_info_list / set_lnb_info_list (spec.md section
// 4.7.8). They are plain data -- the registry is what turns them into
// live FrontendResource / LnbResource entries.
type FrontendInfo struct {
	ID      uint8
	Type    string
	GroupID int
}

type LnbInfo struct {
	ID uint8
}

// ResourceRegistry implements spec.md component C3: typed maps of
// frontends, LNBs, CAS and CiCam resources, plus the exclusive-group
// index on frontends. It is not itself safe for concurrent use; callers
// (package arbiter) hold the single global mutex around every call.
type ResourceRegistry struct {
	frontends *OrderedTable[*FrontendResource]
	lnbs      *OrderedTable[*LnbResource]
	cas       map[uint32]*CasResource
	cicam     map[uint32]*CiCamResource

	frontendBackup *OrderedTable[*FrontendResource]
	lnbBackup      *OrderedTable[*LnbResource]
	casBackup      map[uint32]*CasResource
	cicamBackup    map[uint32]*CiCamResource
}

// NewResourceRegistry returns an empty registry.
func NewResourceRegistry() *ResourceRegistry {
	return &ResourceRegistry{
		frontends: NewOrderedTable[*FrontendResource](),
		lnbs:      NewOrderedTable[*LnbResource](),
		cas:       make(map[uint32]*CasResource),
		cicam:     make(map[uint32]*CiCamResource),
	}
}

// --- Frontends -------------------------------------------------------

// AddFrontend inserts a new frontend and splices it into the exclusive
// group graph: every existing frontend sharing its group gains a
// reciprocal membership entry, and vice versa (spec.md section 4.3).
func (r *ResourceRegistry) AddFrontend(info FrontendInfo) *FrontendResource {
	fe := newFrontend(info.ID, info.Type, info.GroupID)

	for _, other := range r.frontends.Ascending() {
		if other.ExclusiveGroupID == info.GroupID {
			other.ExclusiveGroupMembers[fe.ID] = struct{}{}
			fe.ExclusiveGroupMembers[other.ID] = struct{}{}
		}
	}

	r.frontends.Insert(info.ID, fe)
	return fe
}

// RemoveFrontend withdraws id from the registry and from every exclusive
// group member's reciprocal set.
func (r *ResourceRegistry) RemoveFrontend(id uint8) (*FrontendResource, bool) {
	fe, ok := r.frontends.Delete(id)
	if !ok {
		return nil, false
	}

	for member := range fe.ExclusiveGroupMembers {
		if sibling, ok := r.frontends.Get(member); ok {
			delete(sibling.ExclusiveGroupMembers, id)
		}
	}

	return fe, true
}

// Frontend looks up a frontend by id.
func (r *ResourceRegistry) Frontend(id uint8) (*FrontendResource, bool) {
	return r.frontends.Get(id)
}

// Frontends returns every frontend in ascending id order.
func (r *ResourceRegistry) Frontends() []*FrontendResource {
	return r.frontends.Ascending()
}

// FrontendsByType returns every frontend of the given type, in ascending
// id order -- the iteration order spec.md section 4.7.1 step 3 relies on.
func (r *ResourceRegistry) FrontendsByType(typ string) []*FrontendResource {
	var out []*FrontendResource
	for _, fe := range r.frontends.Ascending() {
		if fe.Type == typ {
			out = append(out, fe)
		}
	}
	return out
}

// --- LNBs --------------------------------------------------------------

// AddLnb inserts a new LNB; LNBs carry no exclusive-group semantics.
func (r *ResourceRegistry) AddLnb(info LnbInfo) *LnbResource {
	lnb := &LnbResource{ID: info.ID}
	r.lnbs.Insert(info.ID, lnb)
	return lnb
}

// RemoveLnb withdraws id from the registry.
func (r *ResourceRegistry) RemoveLnb(id uint8) (*LnbResource, bool) {
	return r.lnbs.Delete(id)
}

// Lnb looks up an LNB by id.
func (r *ResourceRegistry) Lnb(id uint8) (*LnbResource, bool) {
	return r.lnbs.Get(id)
}

// Lnbs returns every LNB in ascending id order.
func (r *ResourceRegistry) Lnbs() []*LnbResource {
	return r.lnbs.Ascending()
}

// --- CAS / CiCam ---------------------------------------------------------

// EnsureCAS returns the CAS entry for systemID, auto-creating it with an
// unbounded session limit if it is not yet known (spec.md section 4.7.5).
func (r *ResourceRegistry) EnsureCAS(systemID uint32) *CasResource {
	if c, ok := r.cas[systemID]; ok {
		return c
	}
	c := newCas(systemID, Unbounded)
	r.cas[systemID] = c
	return c
}

// CAS looks up a CAS system without auto-creating it.
func (r *ResourceRegistry) CAS(systemID uint32) (*CasResource, bool) {
	c, ok := r.cas[systemID]
	return c, ok
}

// SetCASMax creates or updates systemID's session limit. A limit of 0
// removes the entry entirely (spec.md section 4.7.8).
func (r *ResourceRegistry) SetCASMax(systemID uint32, max int) *CasResource {
	if max == 0 {
		delete(r.cas, systemID)
		return nil
	}
	c, ok := r.cas[systemID]
	if !ok {
		c = newCas(systemID, max)
		r.cas[systemID] = c
		return c
	}
	c.MaxSessions = max
	return c
}

// EnsureCiCam returns the CiCam entry for cicamID, auto-creating it with
// an unbounded session limit if it is not yet known.
func (r *ResourceRegistry) EnsureCiCam(cicamID uint32) *CiCamResource {
	if c, ok := r.cicam[cicamID]; ok {
		return c
	}
	c := newCiCam(cicamID, Unbounded)
	r.cicam[cicamID] = c
	return c
}

// CiCam looks up a CiCam system without auto-creating it.
func (r *ResourceRegistry) CiCam(cicamID uint32) (*CiCamResource, bool) {
	c, ok := r.cicam[cicamID]
	return c, ok
}

// SetCiCamMax creates or updates cicamID's session limit. A limit of 0
// removes the entry entirely.
func (r *ResourceRegistry) SetCiCamMax(cicamID uint32, max int) *CiCamResource {
	if max == 0 {
		delete(r.cicam, cicamID)
		return nil
	}
	c, ok := r.cicam[cicamID]
	if !ok {
		c = newCiCam(cicamID, max)
		r.cicam[cicamID] = c
		return c
	}
	c.MaxSessions = max
	return c
}
