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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/nestybox/tuner-arbiterd/handle"
)

func TestObserveGrantIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveGrant(handle.Frontend)
	c.ObserveGrant(handle.Frontend)
	c.ObserveDeny(handle.Frontend)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.events.WithLabelValues("frontend", "grant")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.events.WithLabelValues("frontend", "deny")))
}

func TestSetInUseReportsCurrentGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetInUse(handle.Lnb, 3)
	assert.Equal(t, float64(3), testutil.ToFloat64(c.inUse.WithLabelValues("lnb")))

	c.SetInUse(handle.Lnb, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.inUse.WithLabelValues("lnb")))
}
