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

// Package priority implements the use-case priority table (spec.md
// component C2) and the priority engine (C6) that computes a client's
// effective priority and the highest priority across a frontend's
// owner/sharee set.
package priority

import "fmt"

// MaxPriority is the upper (inclusive) bound of the priority range, as
// fixed by spec.md section 4.2.
const MaxPriority = 1000

// entry holds the foreground and background priority for one use-case.
type entry struct {
	fg int
	bg int
}

// Table is a static use-case -> priority mapping, fixed by configuration
// at startup. It is safe for concurrent reads once built; callers are not
// expected to mutate it after the arbiter starts serving requests, mirroring
// spec.md's "fixed by configuration at startup" language.
type Table struct {
	entries map[UseCase]entry
}

// NewTable returns an empty table; use Set to populate it, or load one via
// the config package.
func NewTable() *Table {
	return &Table{entries: make(map[UseCase]entry)}
}

// Set installs the foreground/background priority pair for a use-case,
// rejecting values outside [0, MaxPriority] outright so a bad config file
// fails fast rather than silently misbehaving.
func (t *Table) Set(uc UseCase, fgPriority, bgPriority int) error {
	if fgPriority < 0 || fgPriority > MaxPriority {
		return fmt.Errorf("priority: fg priority %d for %q out of range [0,%d]", fgPriority, uc, MaxPriority)
	}
	if bgPriority < 0 || bgPriority > MaxPriority {
		return fmt.Errorf("priority: bg priority %d for %q out of range [0,%d]", bgPriority, uc, MaxPriority)
	}
	t.entries[uc] = entry{fg: fgPriority, bg: bgPriority}
	return nil
}

// IsDefined reports whether uc has an entry in the table.
func (t *Table) IsDefined(uc UseCase) bool {
	_, ok := t.entries[uc]
	return ok
}

// Priority returns the priority for (uc, foreground). Returns an error if
// uc is not a known use-case -- spec.md section 7 names UnknownUseCase as
// a validation-level error raised at register() time, which is where
// callers of this method surface it.
func (t *Table) Priority(uc UseCase, foreground bool) (int, error) {
	e, ok := t.entries[uc]
	if !ok {
		return 0, fmt.Errorf("priority: unknown use-case %q", uc)
	}
	if foreground {
		return e.fg, nil
	}
	return e.bg, nil
}

// UseCases returns the set of use-cases currently defined in the table.
func (t *Table) UseCases() []UseCase {
	ucs := make([]UseCase, 0, len(t.entries))
	for uc := range t.entries {
		ucs = append(ucs, uc)
	}
	return ucs
}
