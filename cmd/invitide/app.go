package main

import (
	"net/http"

	"invitide/internal/auth"
	"invitide/internal/auth/auth_api"
	auth_db "invitide/internal/auth/db"
	"invitide/internal/config"
	"invitide/internal/events"
	events_db "invitide/internal/events/db"
	"invitide/internal/events/event_api"
	"invitide/internal/logger"
	"invitide/internal/pass"
	"invitide/internal/pass/pass_api"
	"invitide/internal/profiles"
	profiles_db "invitide/internal/profiles/db"
	"invitide/internal/profiles/profile_api"
	"invitide/internal/qr"
	"invitide/internal/rsvp"
	rsvp_db "invitide/internal/rsvp/db"
	"invitide/internal/rsvp/rsvp_api"

	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"
)

// publisher is satisfied by the Kafka publisher and kafka.NopPublisher.
type publisher interface {
	events.Publisher
	rsvp.Publisher
}

type deps struct {
	DB        *bun.DB
	Redis     *redis.Client
	Publisher publisher
	// OIDC and Signer are optional.
	OIDC   auth.IDTokenVerifier
	Signer pass.Signer
	Config *config.Config
	Logger *logger.Logger
}

type app struct {
	Auth     *auth.AuthService
	Events   *events.EventService
	RSVP     *rsvp.RSVPService
	Profiles *profiles.ProfileService
	Passes   *pass.Generator
	Codec    *qr.Codec
	api      api
}

func newApp(d deps) *app {
	cfg := d.Config
	codec := qr.NewCodec(cfg.QR.SecretKey)

	profileService := profiles.NewProfileService(&profiles_db.DB{Bun: d.DB}, codec, d.Logger)
	authService := auth.NewAuthService(
		&auth_db.DB{Bun: d.DB},
		auth.NewRedisSessionStore(d.Redis),
		profileService,
		auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL),
		d.OIDC,
		d.Logger,
	)
	eventService := events.NewEventService(
		&events_db.DB{Bun: d.DB},
		d.Publisher,
		cfg.Server.Location(),
		cfg.Server.PublicBaseURL,
		d.Logger,
	)
	rsvpService := rsvp.NewRSVPService(
		&rsvp_db.DB{Bun: d.DB},
		eventService,
		profileService,
		codec,
		d.Publisher,
		d.Logger,
	)
	generator := pass.NewGenerator(pass.Options{
		AssetsDir:          cfg.Pass.AssetsDir,
		PassTypeIdentifier: cfg.Pass.PassTypeIdentifier,
		TeamIdentifier:     cfg.Pass.TeamIdentifier,
		OrganizationName:   cfg.Pass.OrganizationName,
	}, d.Signer, d.Logger)

	return &app{
		Auth:     authService,
		Events:   eventService,
		RSVP:     rsvpService,
		Profiles: profileService,
		Passes:   generator,
		Codec:    codec,
		api: api{
			Resolver:       authService,
			Auth:           auth_api.NewHandler(authService, d.Logger),
			Events:         event_api.NewHandler(eventService, d.Logger),
			RSVP:           rsvp_api.NewHandler(rsvpService, d.Logger),
			Profiles:       profile_api.NewHandler(profileService, d.Logger),
			Passes:         pass_api.NewHandler(generator, d.Logger),
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			Logger:         d.Logger,
		},
	}
}

func (a *app) Router() http.Handler {
	return a.api.router()
}
