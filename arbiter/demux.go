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

// RequestDemux and RequestDescrambler implement spec.md section 4.7.6:
// both resources are plentiful enough on every known deployment target
// that the arbiter does not track ownership or contention for them --
// every request from a registered client is granted. The returned handle exists
// only so callers keep a uniform request/release calling convention; release
// of either is a no-op.
func (a *Arbiter) RequestDemux(clientID uint64) (handle.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.clients.Get(clientID); !ok {
		return handle.Invalid, ErrUnregistered
	}
	a.metrics.ObserveGrant(handle.Demux)
	return a.encodeHandle(handle.Demux, 0), nil
}

func (a *Arbiter) RequestDescrambler(clientID uint64) (handle.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.clients.Get(clientID); !ok {
		return handle.Invalid, ErrUnregistered
	}
	a.metrics.ObserveGrant(handle.Descrambler)
	return a.encodeHandle(handle.Descrambler, 0), nil
}

// ReleaseDemux and ReleaseDescrambler validate the handle shape for
// symmetry with the other release operations but otherwise do nothing.
func (a *Arbiter) ReleaseDemux(h handle.Handle) error {
	if !handle.Validate(h, handle.Demux) {
		return ErrBadHandle
	}
	return nil
}

func (a *Arbiter) ReleaseDescrambler(h handle.Handle) error {
	if !handle.Validate(h, handle.Descrambler) {
		return ErrBadHandle
	}
	return nil
}
