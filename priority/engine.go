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

package priority

// Client is the minimal view the priority engine needs of a client
// profile. registry.ClientProfile satisfies this interface structurally;
// this package never imports registry, so the dependency only runs one
// way (arbiter wires the two together).
type Client interface {
	ID() uint64
	UseCase() UseCase
	ProcessID() uint32
	SessionTag() string
	PriorityOverwritten() bool
	Priority() int
	SetPriority(p int)
	ShareFEClients() []uint64
}

// Lookup resolves a client id to its profile. Implemented by the client
// registry.
type Lookup interface {
	Lookup(id uint64) (Client, bool)
}

// Oracle is the foreground-detection external collaborator (spec.md
// section 6). It may be slow; the engine calls it at most once per client
// per refresh. When a client registered with a non-empty session tag, the
// tag overrides the process id as the thing the oracle resolves foreground
// state for (spec.md section 3, ClientProfile.session_tag).
type Oracle interface {
	IsForeground(processID uint32, sessionTag string) bool
}

// Engine implements spec.md component C6: priority refresh and the
// highest-priority-across-a-share-group computation used at every reclaim
// decision point. Priorities are never cached across requests; Refresh is
// called lazily, exactly at each decision point, per spec.md section 4.6.
type Engine struct {
	table  *Table
	oracle Oracle
	lookup Lookup
}

// NewEngine builds a priority engine against a fixed table, a foreground
// oracle, and a client lookup (used to resolve share_fe_clients ids).
func NewEngine(table *Table, oracle Oracle, lookup Lookup) *Engine {
	return &Engine{table: table, oracle: oracle, lookup: lookup}
}

// Refresh recomputes c's priority from the table unless the client has an
// explicit priority override in effect (spec.md section 4.6, "otherwise
// no-op").
func (e *Engine) Refresh(c Client) {
	if c.PriorityOverwritten() {
		return
	}

	fg := e.oracle.IsForeground(c.ProcessID(), c.SessionTag())
	p, err := e.table.Priority(c.UseCase(), fg)
	if err != nil {
		// The use-case was validated at register() time (see arbiter.Register), so
		// this should be unreachable; leave the cached priority untouched
		// rather than silently zeroing it out.
		return
	}
	c.SetPriority(p)
}

// HighestForFrontend refreshes owner and every client sharing a frontend
// with it, then returns the maximum priority across the group. This is the
// value reclaim candidates are compared against (spec.md section 4.6).
func (e *Engine) HighestForFrontend(owner Client) int {
	e.Refresh(owner)
	best := owner.Priority()

	for _, sid := range owner.ShareFEClients() {
		sharee, ok := e.lookup.Lookup(sid)
		if !ok {
			continue
		}
		e.Refresh(sharee)
		if sharee.Priority() > best {
			best = sharee.Priority()
		}
	}

	return best
}
