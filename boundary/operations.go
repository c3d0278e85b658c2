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
	"github.com/google/uuid"
	grpcCodes "google.golang.org/grpc/codes"
	grpcStatus "google.golang.org/grpc/status"

	"github.com/nestybox/tuner-arbiterd/handle"
	"github.com/nestybox/tuner-arbiterd/priority"
	"github.com/nestybox/tuner-arbiterd/registry"
)

// validateClientID rejects the reserved "no client" sentinel before ever
// taking the arbiter's lock (spec.md section 9: validation happens
// before lock acquisition).
func validateClientID(op string, id uint64) error {
	if id == 0 {
		return grpcStatus.Errorf(grpcCodes.InvalidArgument, "%s: client id 0 is reserved", op)
	}
	return nil
}

// Register implements spec.md section 6's register. An empty sessionTag
// is replaced with a freshly minted one (spec.md section 3,
// ClientProfile.session_tag) so the foreground oracle always has
// something stable to key on.
func (b *Boundary) Register(useCase priority.UseCase, sessionTag string, processID uint32, cb registry.ReclaimCallback) (uint64, string, error) {
	if useCase == "" {
		return 0, "", grpcStatus.Errorf(grpcCodes.InvalidArgument, "register: use case is required")
	}
	if sessionTag == "" {
		sessionTag = uuid.NewString()
	}

	b.log.Debugf("register: use_case=%s pid=%d session_tag=%s", useCase, processID, sessionTag)
	id, err := b.arb.Register(useCase, sessionTag, processID, cb)
	if err != nil {
		b.log.Errorf("register: use_case=%s pid=%d failed: %v", useCase, processID, err)
		return 0, "", translate("register", err)
	}
	b.log.Infof("register: client=%d use_case=%s pid=%d", id, useCase, processID)
	return id, sessionTag, nil
}

// Unregister implements spec.md section 6's unregister, a no-op-if-absent
// operation by contract.
func (b *Boundary) Unregister(clientID uint64) error {
	if err := validateClientID("unregister", clientID); err != nil {
		return err
	}
	b.arb.Unregister(clientID)
	b.log.Infof("unregister: client=%d", clientID)
	return nil
}

// UpdatePriority implements spec.md section 6's update_priority.
func (b *Boundary) UpdatePriority(clientID uint64, priorityVal, niceValue int) error {
	if err := validateClientID("update_priority", clientID); err != nil {
		return err
	}
	if priorityVal < 0 || priorityVal > priority.MaxPriority {
		return grpcStatus.Errorf(grpcCodes.InvalidArgument, "update_priority: priority %d out of range [0,%d]", priorityVal, priority.MaxPriority)
	}
	return translate("update_priority", b.arb.UpdatePriority(clientID, priorityVal, niceValue))
}

// SetFrontendInfoList implements spec.md section 6's
// set_frontend_info_list.
func (b *Boundary) SetFrontendInfoList(infos []registry.FrontendInfo) {
	b.log.Infof("set_frontend_info_list: count=%d", len(infos))
	b.arb.SetFrontendInfoList(infos)
}

// SetLnbInfoList implements spec.md section 6's set_lnb_info_list.
func (b *Boundary) SetLnbInfoList(infos []registry.LnbInfo) {
	b.log.Infof("set_lnb_info_list: count=%d", len(infos))
	b.arb.SetLnbInfoList(infos)
}

// UpdateCASInfo implements spec.md section 6's update_cas_info.
func (b *Boundary) UpdateCASInfo(systemID uint32, maxSessions int) error {
	if maxSessions < 0 {
		return grpcStatus.Errorf(grpcCodes.InvalidArgument, "update_cas_info: max_sessions must be >= 0")
	}
	b.arb.UpdateCASInfo(systemID, maxSessions)
	return nil
}

// UpdateCiCamInfo mirrors UpdateCASInfo for CiCam sessions (a supplemented
// symmetric operation; see SPEC_FULL.md section 3).
func (b *Boundary) UpdateCiCamInfo(cicamID uint32, maxSessions int) error {
	if maxSessions < 0 {
		return grpcStatus.Errorf(grpcCodes.InvalidArgument, "update_cicam_info: max_sessions must be >= 0")
	}
	b.arb.UpdateCiCamInfo(cicamID, maxSessions)
	return nil
}

// RequestFrontend implements spec.md section 6's request_frontend.
func (b *Boundary) RequestFrontend(clientID uint64, typ string) (handle.Handle, error) {
	if err := validateClientID("request_frontend", clientID); err != nil {
		return handle.Invalid, err
	}
	if typ == "" {
		return handle.Invalid, grpcStatus.Errorf(grpcCodes.InvalidArgument, "request_frontend: type is required")
	}

	b.log.Debugf("request_frontend: client=%d type=%s", clientID, typ)
	h, err := b.arb.RequestFrontend(clientID, typ)
	if err != nil {
		b.log.Errorf("request_frontend: client=%d type=%s denied: %v", clientID, typ, err)
		return handle.Invalid, translate("request_frontend", err)
	}
	b.log.Infof("request_frontend: client=%d type=%s granted", clientID, typ)
	return h, nil
}

// ShareFrontend implements spec.md section 6's share_frontend.
func (b *Boundary) ShareFrontend(selfID, targetID uint64) (handle.Handle, error) {
	if err := validateClientID("share_frontend", selfID); err != nil {
		return handle.Invalid, err
	}
	if err := validateClientID("share_frontend", targetID); err != nil {
		return handle.Invalid, err
	}
	h, err := b.arb.ShareFrontend(selfID, targetID)
	return h, translate("share_frontend", err)
}

// RequestLnb implements spec.md section 6's request_lnb.
func (b *Boundary) RequestLnb(clientID uint64) (handle.Handle, error) {
	if err := validateClientID("request_lnb", clientID); err != nil {
		return handle.Invalid, err
	}
	h, err := b.arb.RequestLnb(clientID)
	return h, translate("request_lnb", err)
}

// RequestCAS implements spec.md section 6's request_cas.
func (b *Boundary) RequestCAS(clientID uint64, systemID uint32) (handle.Handle, error) {
	if err := validateClientID("request_cas", clientID); err != nil {
		return handle.Invalid, err
	}
	h, err := b.arb.RequestCAS(clientID, systemID)
	return h, translate("request_cas", err)
}

// RequestCiCam implements spec.md section 6's request_cicam.
func (b *Boundary) RequestCiCam(clientID uint64, cicamID uint32) (handle.Handle, error) {
	if err := validateClientID("request_cicam", clientID); err != nil {
		return handle.Invalid, err
	}
	h, err := b.arb.RequestCiCam(clientID, cicamID)
	return h, translate("request_cicam", err)
}

// RequestDemux and RequestDescrambler implement spec.md section 6's
// always-granted resources.
func (b *Boundary) RequestDemux(clientID uint64) (handle.Handle, error) {
	if err := validateClientID("request_demux", clientID); err != nil {
		return handle.Invalid, err
	}
	h, err := b.arb.RequestDemux(clientID)
	return h, translate("request_demux", err)
}

func (b *Boundary) RequestDescrambler(clientID uint64) (handle.Handle, error) {
	if err := validateClientID("request_descrambler", clientID); err != nil {
		return handle.Invalid, err
	}
	h, err := b.arb.RequestDescrambler(clientID)
	return h, translate("request_descrambler", err)
}

// ReleaseFrontend implements spec.md section 6's release_frontend.
func (b *Boundary) ReleaseFrontend(h handle.Handle, clientID uint64) error {
	if err := validateClientID("release_frontend", clientID); err != nil {
		return err
	}
	return translate("release_frontend", b.arb.ReleaseFrontend(h, clientID))
}

// ReleaseLnb implements spec.md section 6's release_lnb.
func (b *Boundary) ReleaseLnb(h handle.Handle, clientID uint64) error {
	if err := validateClientID("release_lnb", clientID); err != nil {
		return err
	}
	return translate("release_lnb", b.arb.ReleaseLnb(h, clientID))
}

// ReleaseCAS implements spec.md section 6's release_cas.
func (b *Boundary) ReleaseCAS(h handle.Handle, clientID uint64, systemID uint32) error {
	if err := validateClientID("release_cas", clientID); err != nil {
		return err
	}
	return translate("release_cas", b.arb.ReleaseCAS(h, clientID, systemID))
}

// ReleaseCiCam implements spec.md section 6's release_cicam.
func (b *Boundary) ReleaseCiCam(h handle.Handle, clientID uint64, cicamID uint32) error {
	if err := validateClientID("release_cicam", clientID); err != nil {
		return err
	}
	return translate("release_cicam", b.arb.ReleaseCiCam(h, clientID, cicamID))
}

// ReleaseDemux and ReleaseDescrambler are no-ops by contract (spec.md
// section 4.7.6) but still validate the handle shape.
func (b *Boundary) ReleaseDemux(h handle.Handle) error {
	return translate("release_demux", b.arb.ReleaseDemux(h))
}

func (b *Boundary) ReleaseDescrambler(h handle.Handle) error {
	return translate("release_descrambler", b.arb.ReleaseDescrambler(h))
}

// HasUnusedFrontend implements spec.md section 6's has_unused_frontend.
func (b *Boundary) HasUnusedFrontend(typ string) (bool, error) {
	if typ == "" {
		return false, grpcStatus.Errorf(grpcCodes.InvalidArgument, "has_unused_frontend: type is required")
	}
	return b.arb.HasUnusedFrontend(typ), nil
}

// IsLowestPriority implements spec.md section 6's is_lowest_priority.
func (b *Boundary) IsLowestPriority(clientID uint64, typ string) (bool, error) {
	if err := validateClientID("is_lowest_priority", clientID); err != nil {
		return false, err
	}
	if typ == "" {
		return false, grpcStatus.Errorf(grpcCodes.InvalidArgument, "is_lowest_priority: type is required")
	}
	lowest, err := b.arb.IsLowestPriority(clientID, typ)
	return lowest, translate("is_lowest_priority", err)
}

// IsHigherPriority implements spec.md section 6's is_higher_priority.
func (b *Boundary) IsHigherPriority(challengerID, holderID uint64) (bool, error) {
	if err := validateClientID("is_higher_priority", challengerID); err != nil {
		return false, err
	}
	if err := validateClientID("is_higher_priority", holderID); err != nil {
		return false, err
	}
	higher, err := b.arb.IsHigherPriority(challengerID, holderID)
	return higher, translate("is_higher_priority", err)
}

// StoreMap, ClearMap and RestoreMap implement spec.md section 6's
// store_map/clear_map/restore_map operations over component C8.
func (b *Boundary) StoreMap(kind handle.Type) error {
	return translate("store_map", b.arb.StoreMap(kind))
}

func (b *Boundary) ClearMap(kind handle.Type) error {
	return translate("clear_map", b.arb.ClearMap(kind))
}

func (b *Boundary) RestoreMap(kind handle.Type) error {
	return translate("restore_map", b.arb.RestoreMap(kind))
}
