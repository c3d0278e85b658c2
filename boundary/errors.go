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

package boundary

import (
	"errors"

	grpcCodes "google.golang.org/grpc/codes"
	grpcStatus "google.golang.org/grpc/status"

	"github.com/nestybox/tuner-arbiterd/arbiter"
)

// translate maps an arbiter sentinel error onto spec.md section 7's
// named error taxonomy, expressed as a grpc/status error the way
// ipc/apis.go and state/containerDB.go construct theirs -- this layer
// never actually reaches an RPC transport, but the status/codes idiom is
// the teacher's universal error-construction convention, so Boundary
// keeps using it.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, arbiter.ErrUnknownUseCase):
		return grpcStatus.Errorf(grpcCodes.InvalidArgument, "%s: unknown use case", op)
	case errors.Is(err, arbiter.ErrUnregistered):
		return grpcStatus.Errorf(grpcCodes.NotFound, "%s: client not registered", op)
	case errors.Is(err, arbiter.ErrBusy):
		return grpcStatus.Errorf(grpcCodes.FailedPrecondition, "%s: client already holds a resource of this kind", op)
	case errors.Is(err, arbiter.ErrDenied):
		return grpcStatus.Errorf(grpcCodes.PermissionDenied, "%s: no resource available at sufficient priority", op)
	case errors.Is(err, arbiter.ErrReclaimFailed):
		return grpcStatus.Errorf(grpcCodes.Aborted, "%s: reclaim callback failed", op)
	case errors.Is(err, arbiter.ErrTargetHasNoFrontend):
		return grpcStatus.Errorf(grpcCodes.FailedPrecondition, "%s: target client holds no frontend to share", op)
	case errors.Is(err, arbiter.ErrNotOwner):
		return grpcStatus.Errorf(grpcCodes.PermissionDenied, "%s: client does not own this resource", op)
	case errors.Is(err, arbiter.ErrUnknownResource):
		return grpcStatus.Errorf(grpcCodes.NotFound, "%s: unknown resource", op)
	case errors.Is(err, arbiter.ErrBadHandle):
		return grpcStatus.Errorf(grpcCodes.InvalidArgument, "%s: malformed or wrong-type handle", op)
	default:
		return grpcStatus.Errorf(grpcCodes.Internal, "%s: %v", op, err)
	}
}
