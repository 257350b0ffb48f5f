package auth_api

import (
	"fmt"
	"net/http"

	"invitide/internal/auth"
	"invitide/internal/logger"
	"invitide/internal/models"
	"invitide/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	AuthService *auth.AuthService
	Logger      *logger.Logger
}

func NewHandler(authService *auth.AuthService, log *logger.Logger) *Handler {
	return &Handler{AuthService: authService, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.SignUp)
		r.Post("/login", h.Login)
		r.Post("/oauth", h.OAuth)
		r.Post("/logout", h.Logout)
	})
	r.With(auth.RequireIdentity).Get("/session", h.Session)
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("SignUp: invalid request: %v", err))
		utils.WriteError(w, "Invalid sign-up request", err)
		return
	}

	identity, err := h.AuthService.SignUp(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SignUp: failed: %v", err))
		utils.WriteError(w, "Sign-up failed", err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("SignUp: created identity %s", identity.ID))
	utils.WriteSuccess(w, http.StatusCreated, "Account created", identity)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid sign-in request", err)
		return
	}

	session, err := h.AuthService.SignIn(r.Context(), req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Login: failed: %v", err))
		utils.WriteError(w, "Sign-in failed", err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("Login: session issued for %s", session.Identity.ID))
	utils.WriteSuccess(w, http.StatusOK, "Signed in", session)
}

func (h *Handler) OAuth(w http.ResponseWriter, r *http.Request) {
	var req models.OIDCSignInRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid OAuth sign-in request", err)
		return
	}

	session, err := h.AuthService.SignInWithOIDC(r.Context(), req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("OAuth: failed: %v", err))
		utils.WriteError(w, "OAuth sign-in failed", err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("OAuth: session issued for %s", session.Identity.ID))
	utils.WriteSuccess(w, http.StatusOK, "Signed in", session)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := auth.ExtractTokenFromRequest(r)
	if err == nil {
		if err := h.AuthService.SignOut(r.Context(), token); err != nil {
			h.Logger.Error("API", fmt.Sprintf("Logout: failed: %v", err))
			utils.WriteError(w, "Sign-out failed", err)
			return
		}
	}
	utils.WriteSuccess(w, http.StatusOK, "Signed out", nil)
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "Session resolved", auth.IdentityFrom(r.Context()))
}
