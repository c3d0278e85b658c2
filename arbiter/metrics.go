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

// MetricsSink receives arbiter decision events. Package metrics implements
// it against Prometheus collectors; arbiter depends only on this small
// interface so it never imports the metrics registration code.
type MetricsSink interface {
	ObserveGrant(kind handle.Type)
	ObserveDeny(kind handle.Type)
	ObserveReclaim(kind handle.Type)
	SetInUse(kind handle.Type, n int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveGrant(handle.Type)    {}
func (noopMetrics) ObserveDeny(handle.Type)     {}
func (noopMetrics) ObserveReclaim(handle.Type)  {}
func (noopMetrics) SetInUse(handle.Type, int)   {}
