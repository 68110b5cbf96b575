package api

import (
	"github.com/go-chi/chi/v5"
)

// setupAPIRoutes sets up API v1 routes
func (s *RESTServer) setupAPIRoutes(r chi.Router) {
	// Health check
	r.Get("/health", s.HandleHealth)
	r.Get("/", s.HandleRoot)

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.HandleLogin)
		r.Post("/refresh", s.HandleRefresh)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/auth/me", s.HandleGetCurrentUser)

		// Tenants
		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", s.HandleListTenants)
			r.With(s.adminOnly).Post("/", s.HandleCreateTenant)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetTenant)
				r.With(s.adminOnly).Delete("/", s.HandleDeleteTenant)
			})
		})

		// Base stations
		r.Route("/vbses", func(r chi.Router) {
			r.Get("/", s.HandleListVBSes)
			r.With(s.adminOnly).Post("/", s.HandleCreateVBS)
			r.Route("/{addr}", func(r chi.Router) {
				r.Get("/", s.HandleGetVBS)
				r.Get("/ran_sharing", s.HandleGetRANSharing)
				r.Post("/ran_sharing", s.HandleSetRANSharing)
			})
		})

		// Terminals
		r.Route("/ues", func(r chi.Router) {
			r.Get("/", s.HandleListUEs)
			r.Route("/{addr}/{rnti}", func(r chi.Router) {
				r.Get("/", s.HandleGetUE)
				r.Post("/handover", s.HandleUEHandover)
			})
		})

		// Sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.HandleListSessions)
			r.Route("/{addr}", func(r chi.Router) {
				r.Get("/", s.HandleGetSession)
				r.Delete("/", s.HandleDeleteSession)
				r.Put("/blocks", s.HandleAssignBlocks)
				r.Put("/vbs", s.HandleMoveSession)
				r.Put("/ssids", s.HandleSetSSIDs)
				r.Put("/ports", s.HandleUpdatePort)
			})
		})

		// Handover manager
		r.Route("/handover", func(r chi.Router) {
			r.Get("/", s.HandleGetHandoverParams)
			r.Put("/", s.HandleSetHandoverParams)
		})

		// Events
		r.Get("/events", s.HandleListEvents)

		// Topology
		r.Get("/topology", s.HandleTopology)
	})
}
