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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestybox/tuner-arbiterd/config"
	"github.com/nestybox/tuner-arbiterd/handle"
	"github.com/nestybox/tuner-arbiterd/mocks"
	"github.com/nestybox/tuner-arbiterd/priority"
	"github.com/nestybox/tuner-arbiterd/registry"
)

type fakeOracle struct {
	fg map[uint32]bool
}

func (o *fakeOracle) IsForeground(processID uint32, sessionTag string) bool {
	return o.fg[processID]
}

type fakeCallback struct {
	calls int
	err   error
}

func (f *fakeCallback) OnReclaim() error {
	f.calls++
	return f.err
}

func newTestArbiter() *Arbiter {
	return New(config.DefaultPriorityTable(), &fakeOracle{fg: map[uint32]bool{}}, nil)
}

func registerClient(t *testing.T, a *Arbiter, uc priority.UseCase, pid uint32, cb registry.ReclaimCallback) uint64 {
	t.Helper()
	id, err := a.Register(uc, "", pid, cb)
	require.NoError(t, err)
	return id
}

func TestRegisterRejectsUnknownUseCase(t *testing.T) {
	a := newTestArbiter()
	_, err := a.Register(priority.UseCase("bogus"), "", 1, nil)
	assert.ErrorIs(t, err, ErrUnknownUseCase)
}

func TestRequestFrontendGrantsFirstUnusedInAscendingOrder(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 1, Type: "DVBS"})
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS"})

	id := registerClient(t, a, priority.Live, 100, nil)

	h, err := a.RequestFrontend(id, "DVBS")
	require.NoError(t, err)
	assert.True(t, handle.Validate(h, handle.Frontend))
	_, resourceID := handle.Decode(h)
	assert.Equal(t, uint8(0), resourceID)
}

func TestRequestFrontendBusyWhenAlreadyHoldingOne(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS"})
	a.resources.AddFrontend(registry.FrontendInfo{ID: 1, Type: "DVBS"})
	id := registerClient(t, a, priority.Live, 100, nil)

	_, err := a.RequestFrontend(id, "DVBS")
	require.NoError(t, err)

	_, err = a.RequestFrontend(id, "DVBS")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestRequestFrontendGrantsEntireExclusiveGroup(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS", GroupID: 7})
	a.resources.AddFrontend(registry.FrontendInfo{ID: 1, Type: "DVBS", GroupID: 7})

	id := registerClient(t, a, priority.Live, 100, nil)
	_, err := a.RequestFrontend(id, "DVBS")
	require.NoError(t, err)

	fe1, ok := a.resources.Frontend(1)
	require.True(t, ok)
	assert.True(t, fe1.Owned)
	assert.Equal(t, id, fe1.OwnerClientID)
}

func TestRequestFrontendDeniedWhenChallengerDoesNotOutrank(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS"})

	holder := registerClient(t, a, priority.Live, 100, nil)
	_, err := a.RequestFrontend(holder, "DVBS")
	require.NoError(t, err)

	challenger := registerClient(t, a, priority.Playback, 200, nil)
	_, err = a.RequestFrontend(challenger, "DVBS")
	assert.ErrorIs(t, err, ErrDenied)
}

func TestRequestFrontendReclaimsLowerPriorityOwner(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS"})

	holderCB := &fakeCallback{}
	holder := registerClient(t, a, priority.Playback, 100, holderCB)
	_, err := a.RequestFrontend(holder, "DVBS")
	require.NoError(t, err)

	challenger := registerClient(t, a, priority.Live, 200, nil)
	h, err := a.RequestFrontend(challenger, "DVBS")
	require.NoError(t, err)
	assert.True(t, handle.Validate(h, handle.Frontend))
	assert.Equal(t, 1, holderCB.calls)

	fe, _ := a.resources.Frontend(0)
	assert.Equal(t, challenger, fe.OwnerClientID)

	holderProfile, _ := a.clients.Get(holder)
	assert.False(t, holderProfile.HasFrontend())
}

func TestRequestFrontendReclaimFailureDeniesWithoutMutation(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS"})

	holderCB := &fakeCallback{err: errors.New("endpoint unreachable")}
	holder := registerClient(t, a, priority.Playback, 100, holderCB)
	_, err := a.RequestFrontend(holder, "DVBS")
	require.NoError(t, err)

	challenger := registerClient(t, a, priority.Live, 200, nil)
	_, err = a.RequestFrontend(challenger, "DVBS")
	assert.ErrorIs(t, err, ErrReclaimFailed)

	fe, _ := a.resources.Frontend(0)
	assert.Equal(t, holder, fe.OwnerClientID, "failed reclaim must leave ownership untouched")
}

func TestShareFrontendRequiresTargetToHoldOne(t *testing.T) {
	a := newTestArbiter()
	self := registerClient(t, a, priority.Live, 1, nil)
	target := registerClient(t, a, priority.Live, 2, nil)

	_, err := a.ShareFrontend(self, target)
	assert.ErrorIs(t, err, ErrTargetHasNoFrontend)
}

func TestReclaimNotifiesOwnerAndEverySharee(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS"})

	ownerCB := &fakeCallback{}
	owner := registerClient(t, a, priority.Playback, 100, ownerCB)
	_, err := a.RequestFrontend(owner, "DVBS")
	require.NoError(t, err)

	shareeCB := &fakeCallback{}
	sharee := registerClient(t, a, priority.Playback, 101, shareeCB)
	_, err = a.ShareFrontend(sharee, owner)
	require.NoError(t, err)

	challenger := registerClient(t, a, priority.Live, 200, nil)
	_, err = a.RequestFrontend(challenger, "DVBS")
	require.NoError(t, err)

	assert.Equal(t, 1, ownerCB.calls)
	assert.Equal(t, 1, shareeCB.calls)

	shareeProfile, _ := a.clients.Get(sharee)
	assert.False(t, shareeProfile.HasFrontend())
}

func TestReleaseFrontendByOwnerEvictsSharees(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS"})

	owner := registerClient(t, a, priority.Live, 100, nil)
	h, err := a.RequestFrontend(owner, "DVBS")
	require.NoError(t, err)

	sharee := registerClient(t, a, priority.Live, 101, nil)
	_, err = a.ShareFrontend(sharee, owner)
	require.NoError(t, err)

	require.NoError(t, a.ReleaseFrontend(h, owner))

	fe, _ := a.resources.Frontend(0)
	assert.False(t, fe.Owned)

	shareeProfile, _ := a.clients.Get(sharee)
	assert.False(t, shareeProfile.HasFrontend())
}

func TestReleaseFrontendByShareeOnlyDetachesSelf(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS"})

	owner := registerClient(t, a, priority.Live, 100, nil)
	h, err := a.RequestFrontend(owner, "DVBS")
	require.NoError(t, err)

	sharee := registerClient(t, a, priority.Live, 101, nil)
	_, err = a.ShareFrontend(sharee, owner)
	require.NoError(t, err)

	require.NoError(t, a.ReleaseFrontend(h, sharee))

	fe, _ := a.resources.Frontend(0)
	assert.True(t, fe.Owned, "owner's grant survives a sharee's release")

	ownerProfile, _ := a.clients.Get(owner)
	assert.True(t, ownerProfile.HasFrontend())
}

func TestRequestCASGrantsWithinLimitThenReclaimsWhenFull(t *testing.T) {
	a := newTestArbiter()
	a.resources.SetCASMax(5, 1)

	lowCB := &fakeCallback{}
	low := registerClient(t, a, priority.Playback, 100, lowCB)
	_, err := a.RequestCAS(low, 5)
	require.NoError(t, err)

	high := registerClient(t, a, priority.Live, 200, nil)
	_, err = a.RequestCAS(high, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, lowCB.calls)

	cas, _ := a.resources.CAS(5)
	_, stillOwns := cas.Owners[low]
	assert.False(t, stillOwns)
}

func TestRequestCASDeniesWhenFullAndNoLowerPriorityOwner(t *testing.T) {
	a := newTestArbiter()
	a.resources.SetCASMax(5, 1)

	high := registerClient(t, a, priority.Live, 100, nil)
	_, err := a.RequestCAS(high, 5)
	require.NoError(t, err)

	low := registerClient(t, a, priority.Playback, 200, nil)
	_, err = a.RequestCAS(low, 5)
	assert.ErrorIs(t, err, ErrDenied)
}

func TestUpdateCASInfoShrinkEvictsLowestPriorityFirst(t *testing.T) {
	a := newTestArbiter()
	a.resources.SetCASMax(5, 3)

	lowCB := &fakeCallback{}
	low := registerClient(t, a, priority.Playback, 100, lowCB)
	mid := registerClient(t, a, priority.TimeShift, 101, nil)
	high := registerClient(t, a, priority.Live, 102, nil)

	for _, id := range []uint64{low, mid, high} {
		_, err := a.RequestCAS(id, 5)
		require.NoError(t, err)
	}

	a.UpdateCASInfo(5, 2)

	cas, _ := a.resources.CAS(5)
	assert.Equal(t, 2, cas.UsedSessions())
	_, lowStillOwns := cas.Owners[low]
	assert.False(t, lowStillOwns)
	assert.Equal(t, 1, lowCB.calls)
}

func TestSetFrontendInfoListRevokesRemovedFrontendBestEffort(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS"})

	ownerCB := &fakeCallback{err: errors.New("would normally deny, but reconfig can't be refused")}
	owner := registerClient(t, a, priority.Live, 100, ownerCB)
	_, err := a.RequestFrontend(owner, "DVBS")
	require.NoError(t, err)

	a.SetFrontendInfoList(nil)

	assert.Equal(t, 1, ownerCB.calls)
	ownerProfile, _ := a.clients.Get(owner)
	assert.False(t, ownerProfile.HasFrontend())
	assert.Len(t, a.resources.Frontends(), 0)
}

func TestSetFrontendInfoListPreservesOwnershipOfSurvivingID(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS"})
	a.resources.AddFrontend(registry.FrontendInfo{ID: 1, Type: "DVBS"})

	owner := registerClient(t, a, priority.Live, 100, nil)
	_, err := a.RequestFrontend(owner, "DVBS")
	require.NoError(t, err)

	fe, _ := a.resources.Frontend(0)
	survivingID := fe.ID
	if !fe.Owned {
		survivingID = 1
	}

	a.SetFrontendInfoList([]registry.FrontendInfo{{ID: survivingID, Type: "DVBS"}})

	nfe, ok := a.resources.Frontend(survivingID)
	require.True(t, ok)
	assert.True(t, nfe.Owned)
	assert.Equal(t, owner, nfe.OwnerClientID)
}

func TestUnregisterReleasesFrontendLnbAndCAS(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS"})
	a.resources.AddLnb(registry.LnbInfo{ID: 0})
	a.resources.SetCASMax(5, 1)

	id := registerClient(t, a, priority.Live, 100, nil)
	_, err := a.RequestFrontend(id, "DVBS")
	require.NoError(t, err)
	_, err = a.RequestLnb(id)
	require.NoError(t, err)
	_, err = a.RequestCAS(id, 5)
	require.NoError(t, err)

	a.Unregister(id)

	fe, _ := a.resources.Frontend(0)
	assert.False(t, fe.Owned)
	lnb, _ := a.resources.Lnb(0)
	assert.False(t, lnb.Owned)
	cas, _ := a.resources.CAS(5)
	assert.Equal(t, 0, cas.UsedSessions())

	_, stillRegistered := a.clients.Get(id)
	assert.False(t, stillRegistered)
}

func TestIsHigherPriorityComparesRefreshedValues(t *testing.T) {
	a := newTestArbiter()
	live := registerClient(t, a, priority.Live, 1, nil)
	playback := registerClient(t, a, priority.Playback, 2, nil)

	higher, err := a.IsHigherPriority(live, playback)
	require.NoError(t, err)
	assert.True(t, higher)

	higher, err = a.IsHigherPriority(playback, live)
	require.NoError(t, err)
	assert.False(t, higher)
}

func TestHasUnusedFrontend(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS"})

	assert.True(t, a.HasUnusedFrontend("DVBS"))

	id := registerClient(t, a, priority.Live, 1, nil)
	_, err := a.RequestFrontend(id, "DVBS")
	require.NoError(t, err)

	assert.False(t, a.HasUnusedFrontend("DVBS"))
}

// TestReclaimFailureAgainstMockedCallback exercises the mockery-style
// ReclaimCallback mock (see package mocks) to pin down that a refused
// reclaim both stops the takeover and leaves the refusing owner's grant
// untouched.
func TestReclaimFailureAgainstMockedCallback(t *testing.T) {
	a := newTestArbiter()
	a.resources.AddFrontend(registry.FrontendInfo{ID: 0, Type: "DVBS"})

	ownerCB := &mocks.ReclaimCallback{}
	ownerCB.On("OnReclaim").Return(errors.New("refused"))
	owner := registerClient(t, a, priority.Playback, 100, ownerCB)
	_, err := a.RequestFrontend(owner, "DVBS")
	require.NoError(t, err)

	challenger := registerClient(t, a, priority.Live, 200, nil)
	_, err = a.RequestFrontend(challenger, "DVBS")
	assert.ErrorIs(t, err, ErrReclaimFailed)

	ownerProfile, _ := a.clients.Get(owner)
	assert.True(t, ownerProfile.HasFrontend())
	ownerCB.AssertExpectations(t)
}
