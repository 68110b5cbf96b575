package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/internal/registry"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// RAN-sharing operation accepted by HandleSetRANSharing
const opStaticDLAlloc = "static_t_alloc_DL"

// ========== VBS handlers ==========

// HandleListVBSes lists stations with their runtime state
func (s *RESTServer) HandleListVBSes(w http.ResponseWriter, r *http.Request) {
	var views []vbsView
	err := s.ctrl.Do(r.Context(), func() error {
		for _, v := range s.ctrl.Registry().VBSes() {
			views = append(views, newVBSView(v))
		}
		return nil
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"vbses": views,
		"total": len(views),
	})
}

// HandleCreateVBS provisions a station
func (s *RESTServer) HandleCreateVBS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Addr     string `json:"addr" validate:"required"`
		Label    string `json:"label" validate:"max=100"`
		Supports []struct {
			HWAddr  string `json:"hwaddr"`
			Channel uint32 `json:"channel"`
			Band    uint32 `json:"band"`
		} `json:"supports"`
	}

	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}

	addr, err := parseAddr(req.Addr)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	v := models.NewVBS(addr, req.Label)
	for _, b := range req.Supports {
		hw, err := parseAddr(b.HWAddr)
		if err != nil {
			s.respondFailure(w, err)
			return
		}
		v.Supports = append(v.Supports, models.ResourceBlock{Station: addr, HWAddr: hw, Channel: b.Channel, Band: b.Band})
	}

	ctx := r.Context()
	if err := s.store.CreateVBS(ctx, v); err != nil {
		s.respondFailure(w, err)
		return
	}

	var view vbsView
	err = s.ctrl.Do(ctx, func() error {
		if err := s.ctrl.Registry().AddVBS(v); err != nil {
			return err
		}
		view = newVBSView(v)
		return nil
	})
	if err != nil {
		_ = s.store.DeleteVBS(ctx, addr)
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, view)
}

// HandleGetVBS returns one station
func (s *RESTServer) HandleGetVBS(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddr(chi.URLParam(r, "addr"))
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	var view vbsView
	err = s.ctrl.Do(r.Context(), func() error {
		v, err := s.lookupVBS(addr)
		if err != nil {
			return err
		}
		view = newVBSView(v)
		return nil
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, view)
}

// HandleGetRANSharing returns the last RAN-sharing info reported by the station
func (s *RESTServer) HandleGetRANSharing(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddr(chi.URLParam(r, "addr"))
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	var info *emage.RANSharingInfo
	err = s.ctrl.Do(r.Context(), func() error {
		v, err := s.lookupVBS(addr)
		if err != nil {
			return err
		}
		if v.RANSharing != nil {
			info = cloneRANSharing(v.RANSharing)
		}
		return nil
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	if info == nil {
		info = &emage.RANSharingInfo{}
	}
	s.respondJSON(w, http.StatusOK, info)
}

// HandleSetRANSharing pushes a static downlink RB allocation to the station
func (s *RESTServer) HandleSetRANSharing(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddr(chi.URLParam(r, "addr"))
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	var req struct {
		Operation string                 `json:"operation" validate:"oneof=static_t_alloc_DL"`
		DLAlloc   []emage.CellAllocation `json:"rbs_alloc_dl" validate:"min=1"`
	}
	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}

	err = s.ctrl.Do(r.Context(), func() error {
		return s.ctrl.SetRANSharing(addr, req.DLAlloc)
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"operation":    opStaticDLAlloc,
		"rbs_alloc_dl": req.DLAlloc,
	})
}

// ========== UE handlers ==========

// HandleListUEs lists terminals, optionally filtered by station or tenant
func (s *RESTServer) HandleListUEs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var station *emage.EtherAddress
	if v := q.Get("vbs"); v != "" {
		addr, err := parseAddr(v)
		if err != nil {
			s.respondFailure(w, err)
			return
		}
		station = &addr
	}

	var tenantID *uuid.UUID
	if v := q.Get("tenant_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid tenant id")
			return
		}
		tenantID = &id
	}

	views := []ueView{}
	err := s.ctrl.Do(r.Context(), func() error {
		reg := s.ctrl.Registry()
		ues := reg.UEs()
		if station != nil {
			ues = reg.UEsOf(*station)
		}
		for _, ue := range ues {
			if tenantID != nil && (ue.Tenant == nil || ue.Tenant.ID != *tenantID) {
				continue
			}
			views = append(views, newUEView(ue))
		}
		return nil
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ues":   views,
		"total": len(views),
	})
}

// HandleGetUE returns one terminal
func (s *RESTServer) HandleGetUE(w http.ResponseWriter, r *http.Request) {
	key, err := parseUEKey(r)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	var view ueView
	err = s.ctrl.Do(r.Context(), func() error {
		ue, ok := s.ctrl.Registry().UE(key)
		if !ok {
			return fmt.Errorf("ue %s: %w", key, registry.ErrNotFound)
		}
		view = newUEView(ue)
		return nil
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, view)
}

// HandleUEHandover issues a handover command for a terminal
func (s *RESTServer) HandleUEHandover(w http.ResponseWriter, r *http.Request) {
	key, err := parseUEKey(r)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	var req struct {
		DstVBS  string              `json:"dst_vbs" validate:"required"`
		DstCell uint32              `json:"dst_cell_id"`
		SrcCell *uint32             `json:"src_cell_id"`
		Cause   emage.HandoverCause `json:"cause"`
	}
	req.Cause = emage.CauseTimeCritical
	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}

	dst, err := parseAddr(req.DstVBS)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	var cmd models.HandoverCommand
	err = s.ctrl.Do(r.Context(), func() error {
		ue, ok := s.ctrl.Registry().UE(key)
		if !ok {
			return fmt.Errorf("ue %s: %w", key, registry.ErrNotFound)
		}

		cmd = models.HandoverCommand{
			RNTI:    ue.RNTI(),
			SrcVBS:  key.VBS,
			DstVBS:  dst,
			DstCell: req.DstCell,
			Cause:   req.Cause,
		}
		if req.SrcCell != nil {
			cmd.SrcCell = *req.SrcCell
		} else if ue.VBS != nil && len(ue.VBS.Cells) > 0 {
			cmd.SrcCell = ue.VBS.Cells[0].PhysCellID
		}
		if ue.Tenant != nil {
			id := ue.Tenant.ID
			cmd.TenantID = &id
		}

		return s.ctrl.SendHandover(cmd)
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusAccepted, cmd)
}

// ========== Topology ==========

// HandleTopology returns stations, terminals and sessions in one snapshot
func (s *RESTServer) HandleTopology(w http.ResponseWriter, r *http.Request) {
	topo := topologyView{
		VBSes:    []vbsView{},
		UEs:      []topologyUE{},
		Sessions: []sessionView{},
	}

	err := s.ctrl.Do(r.Context(), func() error {
		reg := s.ctrl.Registry()
		for _, v := range reg.VBSes() {
			topo.VBSes = append(topo.VBSes, newVBSView(v))
		}
		for _, ue := range reg.UEs() {
			t := topologyUE{
				Addr:  ue.Key,
				VBS:   ue.Key.VBS,
				Links: newTopologyLinks(ue),
			}
			if ue.PCell != nil {
				m := *ue.PCell
				t.PCell = &m
			}
			topo.UEs = append(topo.UEs, t)
		}
		for _, sess := range reg.Sessions() {
			topo.Sessions = append(topo.Sessions, newSessionView(sess))
		}
		return nil
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, topo)
}

// lookupVBS must run inside Do
func (s *RESTServer) lookupVBS(addr emage.EtherAddress) (*models.VBS, error) {
	v, ok := s.ctrl.Registry().VBS(addr)
	if !ok {
		return nil, fmt.Errorf("vbs %s: %w", addr, registry.ErrNotFound)
	}
	return v, nil
}

func parseUEKey(r *http.Request) (models.UEKey, error) {
	addr, err := parseAddr(chi.URLParam(r, "addr"))
	if err != nil {
		return models.UEKey{}, err
	}
	rnti, err := strconv.ParseUint(chi.URLParam(r, "rnti"), 10, 32)
	if err != nil {
		return models.UEKey{}, fmt.Errorf("%w: rnti: %v", errBadRequest, errors.Unwrap(err))
	}
	return models.UEKey{VBS: addr, RNTI: uint32(rnti)}, nil
}
