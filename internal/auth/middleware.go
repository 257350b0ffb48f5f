package auth

import (
	"context"
	"net/http"

	"invitide/internal/models"
	"invitide/internal/utils"
)

type contextKey string

const identityKey contextKey = "identity"

// LoginPath is where clients send visitors rejected by RequireIdentity.
const LoginPath = "/login"

// Resolver turns a session token into an identity, nil when it does not resolve.
type Resolver interface {
	Resolve(ctx context.Context, token string) *models.Identity
}

// Middleware attaches the caller's identity to the request context when the
// bearer token resolves. Requests without one pass through anonymous.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractTokenFromRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if identity := resolver.Resolve(r.Context(), token); identity != nil {
				r = r.WithContext(WithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireIdentity answers 401 with a login redirect hint when no identity is attached.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFrom(r.Context()) == nil {
			resp := utils.ErrorResponse("Sign in required", models.ErrUnauthenticated.Error())
			resp.Data = map[string]string{"redirect": LoginPath}
			utils.WriteJSON(w, http.StatusUnauthorized, resp)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom returns the identity attached by Middleware, or nil.
func IdentityFrom(ctx context.Context) *models.Identity {
	if identity, ok := ctx.Value(identityKey).(*models.Identity); ok {
		return identity
	}
	return nil
}
