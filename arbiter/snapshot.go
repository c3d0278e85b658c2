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

import "github.com/nestybox/tuner-arbiterd/handle"

// StoreMap, ClearMap and RestoreMap expose spec.md component C8 through
// the arbiter's single mutex (registry.ResourceRegistry itself takes no
// lock). These back the store_map/clear_map/restore_map operations of
// spec.md section 6, typically used by a HAL driver bracketing a
// reconfiguration it wants to be able to roll back.
func (a *Arbiter) StoreMap(kind handle.Type) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resources.Store(kind)
}

func (a *Arbiter) ClearMap(kind handle.Type) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resources.Clear(kind)
}

func (a *Arbiter) RestoreMap(kind handle.Type) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resources.Restore(kind)
}
