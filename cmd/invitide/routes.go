package main

import (
	"net/http"

	"invitide/internal/auth"
	"invitide/internal/auth/auth_api"
	"invitide/internal/events/event_api"
	"invitide/internal/logger"
	"invitide/internal/pass/pass_api"
	"invitide/internal/profiles/profile_api"
	"invitide/internal/rsvp/rsvp_api"
	"invitide/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type api struct {
	Resolver       auth.Resolver
	Auth           *auth_api.Handler
	Events         *event_api.Handler
	RSVP           *rsvp_api.Handler
	Profiles       *profile_api.Handler
	Passes         *pass_api.Handler
	AllowedOrigins []string
	Logger         *logger.Logger
}

func (a api) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.Logger.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(auth.Middleware(a.Resolver))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w, http.StatusOK, "ok", nil)
	})

	r.Route("/api", func(r chi.Router) {
		a.Auth.RegisterRoutes(r)
		a.Events.RegisterRoutes(r)
		a.RSVP.RegisterRoutes(r)
		a.Profiles.RegisterRoutes(r)
		a.Passes.RegisterRoutes(r)
	})
	a.Logger.Info("ROUTER", "API routes registered under /api")

	a.Passes.RegisterLegacyRoutes(r)
	return r
}
