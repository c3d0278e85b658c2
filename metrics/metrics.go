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

// Package metrics exposes Prometheus collectors for the arbiter's grant,
// deny and reclaim decisions, and current in-use counts per resource
// kind (SPEC_FULL.md section 2's supplemented observability surface).
// spec.md itself names the metrics/telemetry sink as an out-of-scope
// external collaborator (section 1); this package only owns the
// instrumentation points, not where they're shipped. Package arbiter
// reports grant/deny/reclaim events but never calls SetInUse, so the
// in-use gauge holds only values set by direct SetInUse callers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nestybox/tuner-arbiterd/handle"
)

// Collector implements arbiter.MetricsSink against two Prometheus
// collectors: a counter vector for grant/deny/reclaim events and a gauge
// vector for in-use counts, both labeled by resource kind.
type Collector struct {
	events *prometheus.CounterVec
	inUse  *prometheus.GaugeVec
}

// New builds a Collector and registers its collectors against reg. Use
// prometheus.NewRegistry() in tests to avoid colliding with the default
// global registry.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tuner_arbiter",
			Name:      "resource_events_total",
			Help:      "Count of grant/deny/reclaim decisions per resource kind.",
		}, []string{"kind", "event"}),
		inUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tuner_arbiter",
			Name:      "resource_in_use",
			Help:      "Current number of in-use resources per kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(c.events, c.inUse)
	return c
}

func (c *Collector) ObserveGrant(kind handle.Type) {
	c.events.WithLabelValues(kind.String(), "grant").Inc()
}

func (c *Collector) ObserveDeny(kind handle.Type) {
	c.events.WithLabelValues(kind.String(), "deny").Inc()
}

func (c *Collector) ObserveReclaim(kind handle.Type) {
	c.events.WithLabelValues(kind.String(), "reclaim").Inc()
}

func (c *Collector) SetInUse(kind handle.Type, n int) {
	c.inUse.WithLabelValues(kind.String()).Set(float64(n))
}
