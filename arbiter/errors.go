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

import "errors"

// The sentinel errors below are spec.md section 7's named error taxonomy.
// Package boundary maps each one to a grpc/codes.Code and a status
// message; arbiter itself never touches grpc.
var (
	ErrUnknownUseCase      = errors.New("arbiter: unknown use case")
	ErrUnregistered        = errors.New("arbiter: client not registered")
	ErrBusy                = errors.New("arbiter: client already holds a resource of this kind")
	ErrDenied              = errors.New("arbiter: no resource available at sufficient priority")
	ErrReclaimFailed       = errors.New("arbiter: reclaim callback failed")
	ErrTargetHasNoFrontend = errors.New("arbiter: target client holds no frontend to share")
	ErrNotOwner            = errors.New("arbiter: client does not own this resource")
	ErrUnknownResource     = errors.New("arbiter: unknown resource")
	ErrBadHandle           = errors.New("arbiter: malformed or wrong-type handle")
)
