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

// ClientRegistry implements spec.md component C4: a map of client-id to
// client profile, with a counter that never reuses ids within a process
// lifetime (spec.md section 4.4). Like ResourceRegistry, it takes no lock
// of its own.
type ClientRegistry struct {
	clients map[uint64]*ClientProfile
	nextID  uint64
}

// NewClientRegistry returns an empty client registry. Ids are assigned
// starting at 1, so 0 can be used by callers as a "no client" sentinel.
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{clients: make(map[uint64]*ClientProfile), nextID: 1}
}

// Register creates and stores a fresh ClientProfile, returning it with a
// newly assigned id.
func (cr *ClientRegistry) Register(useCase priority.UseCase, sessionTag string, processID uint32, cb ReclaimCallback) *ClientProfile {
	id := cr.nextID
	cr.nextID++

	c := newClientProfile(id, useCase, sessionTag, processID, cb)
	cr.clients[id] = c
	return c
}

// Unregister removes id from the registry. It is a no-op if the id is not
// present (spec.md section 6, unregister is a noop-if-absent operation).
func (cr *ClientRegistry) Unregister(id uint64) {
	delete(cr.clients, id)
}

// Get looks up a client by id.
func (cr *ClientRegistry) Get(id uint64) (*ClientProfile, bool) {
	c, ok := cr.clients[id]
	return c, ok
}

// Lookup implements priority.Lookup so the priority engine can resolve
// share_fe_clients ids without registry importing priority's engine code
// (and without priority importing registry).
func (cr *ClientRegistry) Lookup(id uint64) (priority.Client, bool) {
	c, ok := cr.clients[id]
	if !ok {
		return nil, false
	}
	return c, true
}

// All returns every registered client. Order is unspecified (map
// iteration) -- spec.md makes no ordering guarantee across clients
// (section 5).
func (cr *ClientRegistry) All() []*ClientProfile {
	out := make([]*ClientProfile, 0, len(cr.clients))
	for _, c := range cr.clients {
		out = append(out, c)
	}
	return out
}

// Size returns the number of registered clients.
func (cr *ClientRegistry) Size() int {
	return len(cr.clients)
}
