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

// HasUnusedFrontend implements spec.md section 6's has_unused_frontend:
// true if at least one frontend of typ is currently unowned.
func (a *Arbiter) HasUnusedFrontend(typ string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, fe := range a.resources.FrontendsByType(typ) {
		if !fe.Owned {
			return true
		}
	}
	return false
}

// IsLowestPriority implements spec.md section 6's is_lowest_priority: true
// if clientID is registered, at least one frontend of typ is in use, and
// the client's refreshed priority does not exceed the highest stakeholder
// priority of any in-use frontend of that type. Whether the client itself
// holds a frontend of typ is not checked.
func (a *Arbiter) IsLowestPriority(clientID uint64, typ string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	client, ok := a.clients.Get(clientID)
	if !ok {
		return false, ErrUnregistered
	}
	a.engine.Refresh(client)

	haveAny := false
	for _, fe := range a.resources.FrontendsByType(typ) {
		if !fe.Owned {
			continue
		}
		owner, ok := a.clients.Get(fe.OwnerClientID)
		if !ok {
			continue
		}
		haveAny = true
		p := a.engine.HighestForFrontend(owner)
		if p < client.Priority() {
			return false, nil
		}
	}
	return haveAny, nil
}

// IsHigherPriority implements spec.md section 6's is_higher_priority:
// strict comparison between two registered clients' refreshed
// priorities.
func (a *Arbiter) IsHigherPriority(challengerID, holderID uint64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	challenger, ok := a.clients.Get(challengerID)
	if !ok {
		return false, ErrUnregistered
	}
	holder, ok := a.clients.Get(holderID)
	if !ok {
		return false, ErrUnregistered
	}

	a.engine.Refresh(challenger)
	a.engine.Refresh(holder)
	return challenger.Priority() > holder.Priority(), nil
}
