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

// UseCase is the workload tag a client registers with; it is the key into
// the priority table. The concrete catalog below is this repository's own
// default (spec.md leaves the catalog open) and is meant to be complete
// enough to exercise every scenario named in spec.md section 8.
type UseCase string

const (
	Playback  UseCase = "playback"
	Live      UseCase = "live"
	Record    UseCase = "record"
	TimeShift UseCase = "timeshift"
	Scan      UseCase = "scan"
)

// DefaultUseCases enumerates the catalog shipped with this daemon. A
// deployment-specific table loaded via the config package may define a
// different set -- IsDefined is always authoritative, not this list.
func DefaultUseCases() []UseCase {
	return []UseCase{Playback, Live, Record, TimeShift, Scan}
}
