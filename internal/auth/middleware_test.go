package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"invitide/internal/models"
	"invitide/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver map[string]*models.Identity

func (s staticResolver) Resolve(ctx context.Context, token string) *models.Identity {
	return s[token]
}

func newRouter() chi.Router {
	resolver := staticResolver{"good": {ID: "u1", Email: "a@example.com"}}

	r := chi.NewRouter()
	r.Use(Middleware(resolver))
	r.Get("/public", func(w http.ResponseWriter, r *http.Request) {
		if id := IdentityFrom(r.Context()); id != nil {
			w.Write([]byte(id.ID))
			return
		}
		w.Write([]byte("anonymous"))
	})
	r.With(RequireIdentity).Get("/private", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(IdentityFrom(r.Context()).ID))
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareAttachesIdentity(t *testing.T) {
	r := newRouter()

	assert.Equal(t, "u1", do(r, "/public", "good").Body.String())
	assert.Equal(t, "anonymous", do(r, "/public", "bad").Body.String())
	assert.Equal(t, "anonymous", do(r, "/public", "").Body.String())
	assert.Equal(t, "u1", do(r, "/private", "good").Body.String())
}

func TestRequireIdentityRedirectsToLogin(t *testing.T) {
	rec := do(newRouter(), "/private", "bad")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, map[string]interface{}{"redirect": LoginPath}, body.Data)
}

func TestExtractTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ExtractTokenFromRequest(req)
	assert.Error(t, err)

	req.Header.Set("Authorization", "Token abc")
	_, err = ExtractTokenFromRequest(req)
	assert.Error(t, err)

	req.Header.Set("Authorization", "bearer abc")
	token, err := ExtractTokenFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}
