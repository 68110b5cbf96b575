package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ran-controller/ran-controller-pro/internal/auth"
	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/internal/registry"
	"github.com/ran-controller/ran-controller-pro/internal/storage"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

var errBadRequest = errors.New("bad request")

// ========== Auth handlers ==========

// HandleLogin handles operator login
func (s *RESTServer) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}

	account, err := s.auth.Authenticate(req.Username, req.Password)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	// Generate tokens
	accessToken, refreshToken, err := s.auth.GenerateTokenPair(account)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// HandleRefresh handles token refresh
func (s *RESTServer) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}

	accessToken, refreshToken, err := s.auth.RefreshToken(req.RefreshToken)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// HandleGetCurrentUser returns the caller's token claims
func (s *RESTServer) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(claimsKey).(*auth.Claims)
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "missing claims")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":       claims.UserID,
		"username": claims.Username,
		"is_admin": claims.IsAdmin,
	})
}

// ========== Tenant handlers ==========

// HandleListTenants lists provisioned tenants
func (s *RESTServer) HandleListTenants(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	tenants, total, err := s.store.ListTenants(r.Context(), limit, offset)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"tenants": tenants,
		"total":   total,
	})
}

// HandleCreateTenant persists a tenant and registers it with the controller
func (s *RESTServer) HandleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID          string   `json:"id"`
		Name        string   `json:"name" validate:"required,min=1,max=100"`
		Description string   `json:"description"`
		Owner       string   `json:"owner"`
		PLMNID      string   `json:"plmn_id" validate:"max=6"`
		BSSIDType   string   `json:"bssid_type" validate:"oneof=unique shared"`
		Prefix      string   `json:"prefix"`
		VBSes       []string `json:"vbses"`
		VAPs        []string `json:"vaps"`
	}

	if err := decodeJSON(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}
	if req.BSSIDType == "" {
		req.BSSIDType = string(models.BSSIDUnique)
	}
	if err := s.validator.Validate(&req); err != nil {
		s.respondFailure(w, err)
		return
	}

	tenant := &models.Tenant{
		Name:        req.Name,
		Description: req.Description,
		Owner:       req.Owner,
		BSSIDType:   models.BSSIDType(req.BSSIDType),
		IsActive:    true,
	}

	var err error
	if req.ID != "" {
		if tenant.ID, err = uuid.Parse(req.ID); err != nil {
			s.respondFailure(w, fmt.Errorf("%w: id: %v", errBadRequest, err))
			return
		}
	}
	if req.PLMNID != "" {
		plmn, err := strconv.ParseUint(req.PLMNID, 16, 32)
		if err != nil {
			s.respondFailure(w, fmt.Errorf("%w: plmn_id: %v", errBadRequest, err))
			return
		}
		tenant.PLMNID = uint32(plmn)
	}
	if req.Prefix != "" {
		if tenant.Prefix, err = parseAddr(req.Prefix); err != nil {
			s.respondFailure(w, err)
			return
		}
	}
	if tenant.VBSes, err = parseAddrs(req.VBSes); err != nil {
		s.respondFailure(w, err)
		return
	}
	if tenant.VAPs, err = parseAddrs(req.VAPs); err != nil {
		s.respondFailure(w, err)
		return
	}

	ctx := r.Context()
	if err := s.store.CreateTenant(ctx, tenant); err != nil {
		s.respondFailure(w, err)
		return
	}

	resp := *tenant
	err = s.ctrl.Do(ctx, func() error {
		return s.ctrl.Registry().AddTenant(tenant)
	})
	if err != nil {
		_ = s.store.DeleteTenant(ctx, tenant.ID)
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, &resp)
}

// HandleGetTenant returns a tenant with its attached terminal count
func (s *RESTServer) HandleGetTenant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	ctx := r.Context()
	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	ues := 0
	err = s.ctrl.Do(ctx, func() error {
		if t, ok := s.ctrl.Registry().TenantByID(id); ok {
			ues = len(t.UEs)
		}
		return nil
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"tenant": tenant,
		"ues":    ues,
	})
}

// HandleDeleteTenant removes a tenant from the controller and the store
func (s *RESTServer) HandleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	ctx := r.Context()
	regErr := s.ctrl.Do(ctx, func() error {
		return s.ctrl.Registry().RemoveTenant(id)
	})
	if regErr != nil && !errors.Is(regErr, registry.ErrNotFound) {
		s.respondFailure(w, regErr)
		return
	}

	storeErr := s.store.DeleteTenant(ctx, id)
	if storeErr != nil && !errors.Is(storeErr, storage.ErrNotFound) {
		s.respondFailure(w, storeErr)
		return
	}
	if regErr != nil && storeErr != nil {
		s.respondError(w, http.StatusNotFound, "tenant not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ========== Event handlers ==========

// HandleListEvents lists persisted events, newest first
func (s *RESTServer) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	filters, err := eventFilters(r.URL.Query())
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	limit, offset := pagination(r)
	events, total, err := s.store.ListEventLogs(r.Context(), filters, limit, offset)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  total,
	})
}

// eventFilters parses tenant_id, vbs, ue, type, level, start and end (RFC3339)
func eventFilters(q url.Values) (storage.EventLogFilters, error) {
	f := storage.EventLogFilters{UE: q.Get("ue")}

	if v := q.Get("tenant_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, fmt.Errorf("%w: tenant_id: %v", errBadRequest, err)
		}
		f.TenantID = &id
	}
	if v := q.Get("vbs"); v != "" {
		addr, err := parseAddr(v)
		if err != nil {
			return f, err
		}
		f.VBS = &addr
	}
	if v := q.Get("type"); v != "" {
		t := models.EventType(v)
		f.Type = &t
	}
	if v := q.Get("level"); v != "" {
		l := models.EventLevel(v)
		f.Level = &l
	}

	for _, b := range []struct {
		key string
		dst **time.Time
	}{{"start", &f.StartTime}, {"end", &f.EndTime}} {
		v := q.Get(b.key)
		if v == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("%w: %s: %v", errBadRequest, b.key, err)
		}
		*b.dst = &ts
	}

	return f, nil
}

// ========== Handover manager handlers ==========

// HandleGetHandoverParams returns the load-balancing parameters
func (s *RESTServer) HandleGetHandoverParams(w http.ResponseWriter, r *http.Request) {
	if s.handover == nil {
		s.respondError(w, http.StatusServiceUnavailable, "handover manager disabled")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"params":    s.handover.Params(),
		"period":    s.handover.Period().String(),
		"tenant_id": s.handover.Tenant(),
	})
}

// HandleSetHandoverParams updates any subset of the parameters; invalid
// values leave the previous set in effect
func (s *RESTServer) HandleSetHandoverParams(w http.ResponseWriter, r *http.Request) {
	if s.handover == nil {
		s.respondError(w, http.StatusServiceUnavailable, "handover manager disabled")
		return
	}

	params := s.handover.Params()
	if err := decodeJSON(r, &params); err != nil {
		s.respondFailure(w, err)
		return
	}

	if err := s.handover.SetParams(params); err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"params": s.handover.Params(),
	})
}

// ========== Misc handlers ==========

// HandleHealth health check
func (s *RESTServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	})
}

// HandleRoot root handler
func (s *RESTServer) HandleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "RAN Controller",
		"version": s.config.Server.Version,
		"health":  "/api/v1/health",
		"metrics": "/metrics",
	})
}

// ========== Helper functions ==========

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", errBadRequest)
	}
	return nil
}

// decode decodes and validates a request body
func (s *RESTServer) decode(r *http.Request, v interface{}) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	return s.validator.Validate(v)
}

func pagination(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

func parseAddr(s string) (emage.EtherAddress, error) {
	addr, err := emage.ParseEtherAddress(s)
	if err != nil {
		return addr, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return addr, nil
}

func parseAddrs(in []string) ([]emage.EtherAddress, error) {
	out := make([]emage.EtherAddress, 0, len(in))
	for _, s := range in {
		addr, err := parseAddr(s)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
