package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/internal/registry"
	"github.com/ran-controller/ran-controller-pro/internal/session"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// ========== Session handlers ==========

// HandleListSessions lists sessions, optionally only those served by ?vbs=
func (s *RESTServer) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	var station *emage.EtherAddress
	if v := r.URL.Query().Get("vbs"); v != "" {
		addr, err := parseAddr(v)
		if err != nil {
			s.respondFailure(w, err)
			return
		}
		station = &addr
	}

	views := []sessionView{}
	err := s.ctrl.Do(r.Context(), func() error {
		reg := s.ctrl.Registry()
		sessions := reg.Sessions()
		if station != nil {
			sessions = reg.SessionsAt(*station)
		}
		for _, sess := range sessions {
			views = append(views, newSessionView(sess))
		}
		return nil
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": views,
		"total":    len(views),
	})
}

// HandleGetSession returns one session
func (s *RESTServer) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, http.StatusOK, func(sess *session.Session) error {
		return nil
	})
}

// HandleDeleteSession clears all bindings and forgets the session
func (s *RESTServer) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddr(chi.URLParam(r, "addr"))
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	err = s.ctrl.Do(r.Context(), func() error {
		_, err := s.ctrl.Registry().RemoveSession(addr)
		return err
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAssignBlocks rebinds the session: first block downlink, the rest uplink
func (s *RESTServer) HandleAssignBlocks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Blocks []models.ResourceBlock `json:"blocks"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}

	s.withSession(w, r, http.StatusOK, func(sess *session.Session) error {
		blocks := make([]models.ResourceBlock, 0, len(req.Blocks))
		for _, b := range req.Blocks {
			resolved, err := s.resolveBlock(b)
			if err != nil {
				return err
			}
			blocks = append(blocks, resolved)
		}
		return sess.Assign(blocks)
	})
}

// HandleMoveSession moves the session to a matching block on another station
func (s *RESTServer) HandleMoveSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VBS string `json:"vbs" validate:"required"`
	}
	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}
	dst, err := parseAddr(req.VBS)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.withSession(w, r, http.StatusOK, func(sess *session.Session) error {
		v, err := s.lookupVBS(dst)
		if err != nil {
			return err
		}
		return sess.MoveTo(v.Supports)
	})
}

// HandleSetSSIDs replaces the broadcast SSID list
func (s *RESTServer) HandleSetSSIDs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SSIDs []string `json:"ssids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}

	s.withSession(w, r, http.StatusOK, func(sess *session.Session) error {
		sess.SetSSIDs(req.SSIDs)
		return nil
	})
}

// HandleUpdatePort changes the rate policy of a bound block
func (s *RESTServer) HandleUpdatePort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Block  models.ResourceBlock `json:"block"`
		MCS    []uint32             `json:"mcs"`
		NoAck  bool                 `json:"no_ack"`
		RTSCTS uint32               `json:"rts_cts" validate:"max=2347"`
	}
	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}

	s.withSession(w, r, http.StatusOK, func(sess *session.Session) error {
		return sess.UpdatePort(req.Block, req.MCS, req.NoAck, req.RTSCTS)
	})
}

// withSession runs fn on the addressed session inside the dispatcher loop and
// responds with the resulting session view
func (s *RESTServer) withSession(w http.ResponseWriter, r *http.Request, status int, fn func(*session.Session) error) {
	addr, err := parseAddr(chi.URLParam(r, "addr"))
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	var view sessionView
	err = s.ctrl.Do(r.Context(), func() error {
		sess, ok := s.ctrl.Registry().Session(addr)
		if !ok {
			return fmt.Errorf("session %s: %w", addr, registry.ErrNotFound)
		}
		if err := fn(sess); err != nil {
			return err
		}
		view = newSessionView(sess)
		return nil
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, status, view)
}

// resolveBlock maps a requested block onto one the station supports; must run inside Do
func (s *RESTServer) resolveBlock(b models.ResourceBlock) (models.ResourceBlock, error) {
	v, ok := s.ctrl.Registry().VBS(b.Station)
	if !ok {
		return b, fmt.Errorf("%w: block %s on unknown vbs", session.ErrInvalidArgument, b)
	}
	for _, sup := range v.Supports {
		if sup == b {
			return sup, nil
		}
	}
	return b, fmt.Errorf("%w: block %s not supported by vbs", session.ErrInvalidArgument, b)
}
