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

// Package boundary implements spec.md component C9, the Boundary API: the
// one surface external callers (the HAL driver, client processes) see.
// Every method here validates its arguments before touching the arbiter,
// delegates to package arbiter under its single mutex, and translates the
// result into spec.md section 7's named error taxonomy. Grounded on
// ipc/apis.go's thin-delegating-function-plus-logrus-plus-grpc-status
// shape.
package boundary

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/nestybox/tuner-arbiterd/arbiter"
	"github.com/nestybox/tuner-arbiterd/metrics"
	"github.com/nestybox/tuner-arbiterd/priority"
)

// Boundary wraps an *arbiter.Arbiter with validation, logging and error
// translation. It holds no state of its own.
type Boundary struct {
	arb *arbiter.Arbiter
	log *logrus.Logger
}

// New builds a Boundary around a priority table and foreground oracle,
// registering its Prometheus collectors against reg (pass
// prometheus.NewRegistry() in tests, prometheus.DefaultRegisterer in
// production). log may be nil, in which case logrus.StandardLogger() is
// used, matching cmd/sysbox-fs/main.go's default.
func New(table *priority.Table, oracle priority.Oracle, reg prometheus.Registerer, log *logrus.Logger) *Boundary {
	if log == nil {
		log = logrus.StandardLogger()
	}
	collector := metrics.New(reg)
	return &Boundary{
		arb: arbiter.New(table, oracle, collector),
		log: log,
	}
}
