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

import (
	"fmt"

	"github.com/nestybox/tuner-arbiterd/handle"
)

// Store, Clear and Restore implement spec.md component C8 (Snapshot
// Store) for HAL reconfiguration. Only the frontend map is required by
// spec.md section 4.7.9; this registry also supports LNB, CAS and CiCam
// for symmetry, since nothing about the mechanism is frontend-specific.
//
// Store moves the live map of kind into the backup slot and clears the
// live map. Any client ownership referencing resources that then vanish
// becomes stale bookkeeping that must be cleared the same way as a live
// removal (spec.md section 4.7.8) once the caller installs a new
// configuration -- that reconciliation is the arbiter's job, not the
// registry's; this type only swaps the maps.
func (r *ResourceRegistry) Store(kind handle.Type) error {
	switch kind {
	case handle.Frontend:
		r.frontendBackup = r.frontends
		r.frontends = NewOrderedTable[*FrontendResource]()
	case handle.Lnb:
		r.lnbBackup = r.lnbs
		r.lnbs = NewOrderedTable[*LnbResource]()
	case handle.Cas:
		r.casBackup = r.cas
		r.cas = make(map[uint32]*CasResource)
	case handle.CiCam:
		r.cicamBackup = r.cicam
		r.cicam = make(map[uint32]*CiCamResource)
	default:
		return fmt.Errorf("registry: snapshot store not supported for %v", kind)
	}
	return nil
}

// Clear empties the live map of kind without touching any backup.
func (r *ResourceRegistry) Clear(kind handle.Type) error {
	switch kind {
	case handle.Frontend:
		r.frontends = NewOrderedTable[*FrontendResource]()
	case handle.Lnb:
		r.lnbs = NewOrderedTable[*LnbResource]()
	case handle.Cas:
		r.cas = make(map[uint32]*CasResource)
	case handle.CiCam:
		r.cicam = make(map[uint32]*CiCamResource)
	default:
		return fmt.Errorf("registry: snapshot clear not supported for %v", kind)
	}
	return nil
}

// Restore replaces the live map of kind with the backup and empties the
// backup slot.
func (r *ResourceRegistry) Restore(kind handle.Type) error {
	switch kind {
	case handle.Frontend:
		if r.frontendBackup == nil {
			return fmt.Errorf("registry: no frontend backup to restore")
		}
		r.frontends = r.frontendBackup
		r.frontendBackup = nil
	case handle.Lnb:
		if r.lnbBackup == nil {
			return fmt.Errorf("registry: no lnb backup to restore")
		}
		r.lnbs = r.lnbBackup
		r.lnbBackup = nil
	case handle.Cas:
		if r.casBackup == nil {
			return fmt.Errorf("registry: no cas backup to restore")
		}
		r.cas = r.casBackup
		r.casBackup = nil
	case handle.CiCam:
		if r.cicamBackup == nil {
			return fmt.Errorf("registry: no cicam backup to restore")
		}
		r.cicam = r.cicamBackup
		r.cicamBackup = nil
	default:
		return fmt.Errorf("registry: snapshot restore not supported for %v", kind)
	}
	return nil
}
