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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestybox/tuner-arbiterd/handle"
)

func TestAddFrontendSplicesExclusiveGroup(t *testing.T) {
	rr := NewResourceRegistry()

	fe0 := rr.AddFrontend(FrontendInfo{ID: 0, Type: "DVBS", GroupID: 7})
	fe1 := rr.AddFrontend(FrontendInfo{ID: 1, Type: "DVBS", GroupID: 7})

	_, has0in1 := fe1.ExclusiveGroupMembers[0]
	_, has1in0 := fe0.ExclusiveGroupMembers[1]
	assert.True(t, has0in1)
	assert.True(t, has1in0)
}

func TestRemoveFrontendWithdrawsReciprocalLinks(t *testing.T) {
	rr := NewResourceRegistry()
	rr.AddFrontend(FrontendInfo{ID: 0, Type: "DVBS", GroupID: 7})
	fe1 := rr.AddFrontend(FrontendInfo{ID: 1, Type: "DVBS", GroupID: 7})

	_, ok := rr.RemoveFrontend(0)
	require.True(t, ok)

	_, has0 := fe1.ExclusiveGroupMembers[0]
	assert.False(t, has0)
}

func TestFrontendsByTypeOrdering(t *testing.T) {
	rr := NewResourceRegistry()
	rr.AddFrontend(FrontendInfo{ID: 3, Type: "DVBS", GroupID: 0})
	rr.AddFrontend(FrontendInfo{ID: 1, Type: "DVBT", GroupID: 0})
	rr.AddFrontend(FrontendInfo{ID: 2, Type: "DVBS", GroupID: 0})

	dvbs := rr.FrontendsByType("DVBS")
	require.Len(t, dvbs, 2)
	assert.Equal(t, uint8(2), dvbs[0].ID)
	assert.Equal(t, uint8(3), dvbs[1].ID)
}

func TestEnsureCASAutoCreatesUnbounded(t *testing.T) {
	rr := NewResourceRegistry()
	c := rr.EnsureCAS(5)
	assert.Equal(t, Unbounded, c.MaxSessions)

	_, existed := rr.CAS(5)
	assert.True(t, existed)
}

func TestSetCASMaxZeroRemoves(t *testing.T) {
	rr := NewResourceRegistry()
	rr.EnsureCAS(5)
	rr.SetCASMax(5, 0)

	_, ok := rr.CAS(5)
	assert.False(t, ok)
}

func TestSnapshotStoreClearRestoreFrontends(t *testing.T) {
	rr := NewResourceRegistry()
	rr.AddFrontend(FrontendInfo{ID: 0, Type: "DVBS", GroupID: 0})

	require.NoError(t, rr.Store(handle.Frontend))
	assert.Len(t, rr.Frontends(), 0, "live map must be empty right after Store")

	require.NoError(t, rr.Restore(handle.Frontend))
	assert.Len(t, rr.Frontends(), 1, "restore must bring the backed-up frontend back")

	require.NoError(t, rr.Clear(handle.Frontend))
	assert.Len(t, rr.Frontends(), 0)
}

func TestRestoreWithoutBackupFails(t *testing.T) {
	rr := NewResourceRegistry()
	err := rr.Restore(handle.Frontend)
	assert.Error(t, err)
}
