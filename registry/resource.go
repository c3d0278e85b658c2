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

import "math"

// Unbounded marks a CAS/CiCam system with no configured session limit
// (spec.md section 4.7.5: "If the requested system is unknown,
// auto-create an entry with max_sessions = infinity").
const Unbounded = math.MaxInt32

// FrontendResource is a demodulator/tuner pipeline -- the scarcest
// resource in the arbiter (spec.md section 3).
type FrontendResource struct {
	ID                    uint8
	Type                  string
	ExclusiveGroupID      int
	ExclusiveGroupMembers map[uint8]struct{}
	OwnerClientID         uint64
	Owned                 bool
}

func newFrontend(id uint8, typ string, groupID int) *FrontendResource {
	return &FrontendResource{
		ID:                    id,
		Type:                  typ,
		ExclusiveGroupID:      groupID,
		ExclusiveGroupMembers: make(map[uint8]struct{}),
	}
}

// LnbResource is a block down-converter for satellite input: counted,
// non-shared, no exclusive groups.
type LnbResource struct {
	ID            uint8
	OwnerClientID uint64
	Owned         bool
}

// CasResource is a conditional-access session resource: a counted
// semaphore with a configurable per-system limit.
type CasResource struct {
	SystemID    uint32
	MaxSessions int
	Owners      map[uint64]struct{}
}

func newCas(systemID uint32, max int) *CasResource {
	return &CasResource{SystemID: systemID, MaxSessions: max, Owners: make(map[uint64]struct{})}
}

// UsedSessions returns the number of clients currently holding a session.
func (c *CasResource) UsedSessions() int {
	return len(c.Owners)
}

// CiCamResource is a CiCam conditional-access session resource, identical
// in shape to CasResource but tracked separately per spec.md section 3.
type CiCamResource struct {
	CicamID     uint32
	MaxSessions int
	Owners      map[uint64]struct{}
}

func newCiCam(cicamID uint32, max int) *CiCamResource {
	return &CiCamResource{CicamID: cicamID, MaxSessions: max, Owners: make(map[uint64]struct{})}
}

// UsedSessions returns the number of clients currently holding a session.
func (c *CiCamResource) UsedSessions() int {
	return len(c.Owners)
}
