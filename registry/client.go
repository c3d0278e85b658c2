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

import "github.com/nestybox/tuner-arbiterd/priority"

// ReclaimCallback is the fire-and-forget notification a client supplies
// at register() time (spec.md section 6). OnReclaim carries no payload --
// the client is expected to inspect its own state. A non-nil error means
// the invocation failed; the caller of OnReclaim (package arbiter) treats
// that as ReclaimFailed and leaves state unmutated (spec.md section
// 4.7.7).
type ReclaimCallback interface {
	OnReclaim() error
}

// ClientProfile is spec.md's ClientProfile entity (section 3). It carries
// no internal lock: all mutation happens under the single mutex held one
// layer up, in package arbiter (see package doc in orderedtable.go).
type ClientProfile struct {
	id         uint64
	sessionTag string
	useCase    priority.UseCase
	processID  uint32

	priorityVal         int
	priorityOverwritten bool
	niceValue           int

	inUseFrontends map[uint8]struct{}
	shareFEClients map[uint64]struct{}
	inUseLnbs      map[uint8]struct{}

	inUseCASSystemID  *uint32
	inUseCiCamID      *uint32

	reclaimCallback ReclaimCallback
}

func newClientProfile(id uint64, useCase priority.UseCase, sessionTag string, processID uint32, cb ReclaimCallback) *ClientProfile {
	return &ClientProfile{
		id:              id,
		useCase:         useCase,
		sessionTag:      sessionTag,
		processID:       processID,
		inUseFrontends:  make(map[uint8]struct{}),
		shareFEClients:  make(map[uint64]struct{}),
		inUseLnbs:       make(map[uint8]struct{}),
		reclaimCallback: cb,
	}
}

// --- priority.Client -----------------------------------------------------

func (c *ClientProfile) ID() uint64                { return c.id }
func (c *ClientProfile) UseCase() priority.UseCase { return c.useCase }
func (c *ClientProfile) ProcessID() uint32         { return c.processID }
func (c *ClientProfile) SessionTag() string        { return c.sessionTag }
func (c *ClientProfile) PriorityOverwritten() bool { return c.priorityOverwritten }
func (c *ClientProfile) Priority() int             { return c.priorityVal }
func (c *ClientProfile) SetPriority(p int)         { c.priorityVal = p }

// ShareFEClients returns the ids of clients sharing frontends ultimately
// granted to this client (spec.md section 3, ClientProfile.share_fe_clients).
func (c *ClientProfile) ShareFEClients() []uint64 {
	out := make([]uint64, 0, len(c.shareFEClients))
	for id := range c.shareFEClients {
		out = append(out, id)
	}
	return out
}

// --- other getters/setters ------------------------------------------------

func (c *ClientProfile) NiceValue() int       { return c.niceValue }
func (c *ClientProfile) ReclaimCallback() ReclaimCallback { return c.reclaimCallback }

// SetPriorityOverride freezes the priority at p until the next override
// (spec.md section 3: "priority_overwritten ... frozen until re-overridden").
func (c *ClientProfile) SetPriorityOverride(p, nice int) {
	c.priorityVal = p
	c.priorityOverwritten = true
	c.niceValue = nice
}

// InUseFrontends returns the set of frontend ids this client currently
// references, whether as owner or as sharee.
func (c *ClientProfile) InUseFrontends() map[uint8]struct{} { return c.inUseFrontends }

// HasFrontend reports whether the client holds any frontend at all
// (spec.md section 4.7.1 step 1: a client holding one may not request
// another until it releases).
func (c *ClientProfile) HasFrontend() bool { return len(c.inUseFrontends) > 0 }

// AddFrontend, RemoveFrontend and ClearFrontends mutate the in-use
// frontend set. Exported for package arbiter, which holds the single
// global mutex around every call (spec.md section 5).
func (c *ClientProfile) AddFrontend(id uint8)    { c.inUseFrontends[id] = struct{}{} }
func (c *ClientProfile) RemoveFrontend(id uint8) { delete(c.inUseFrontends, id) }
func (c *ClientProfile) ClearFrontends()         { c.inUseFrontends = make(map[uint8]struct{}) }

// AddSharee and RemoveSharee maintain share_fe_clients (spec.md section 3).
func (c *ClientProfile) AddSharee(id uint64)    { c.shareFEClients[id] = struct{}{} }
func (c *ClientProfile) RemoveSharee(id uint64) { delete(c.shareFEClients, id) }

// InUseLnbs returns the set of LNB ids owned by this client.
func (c *ClientProfile) InUseLnbs() map[uint8]struct{} { return c.inUseLnbs }
func (c *ClientProfile) AddLnb(id uint8)               { c.inUseLnbs[id] = struct{}{} }
func (c *ClientProfile) RemoveLnb(id uint8)            { delete(c.inUseLnbs, id) }

// InUseCASSystemID returns the CAS system id this client currently holds
// a session on, if any (a client holds at most one CAS session at a
// time, per spec.md section 3).
func (c *ClientProfile) InUseCASSystemID() (uint32, bool) {
	if c.inUseCASSystemID == nil {
		return 0, false
	}
	return *c.inUseCASSystemID, true
}

func (c *ClientProfile) SetCASSystemID(id uint32) { c.inUseCASSystemID = &id }
func (c *ClientProfile) ClearCASSystemID()        { c.inUseCASSystemID = nil }

// InUseCiCamID returns the CiCam id this client currently holds a session
// on, if any.
func (c *ClientProfile) InUseCiCamID() (uint32, bool) {
	if c.inUseCiCamID == nil {
		return 0, false
	}
	return *c.inUseCiCamID, true
}

func (c *ClientProfile) SetCiCamID(id uint32) { c.inUseCiCamID = &id }
func (c *ClientProfile) ClearCiCamID()        { c.inUseCiCamID = nil }
