package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"normal_oj/internal/common"
	"normal_oj/internal/common/security"
	"normal_oj/internal/domain/model"
)

type contextKey string

const userCtxKey contextKey = "user"

// UserResolver turns verified credentials into a full account. Both lookups
// are served by the auth service.
type UserResolver interface {
	FindByClaimsKey(ctx context.Context, claimsKey string) (*model.User, error)
	FindByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
}

// Authenticator resolves the caller either from a verified bearer token or
// from an X-API-Key header, and stores the full account in the request
// context. Requests with neither credential are rejected.
func Authenticator(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
				user, err := resolver.FindByAPIKey(r.Context(), apiKey)
				if err != nil {
					common.RespondWithError(w, http.StatusUnauthorized, "invalid API key")
					return
				}
				next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
				return
			}

			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "authorization token required")
				return
			}
			pid, err := security.GetPidFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}
			user, err := resolver.FindByClaimsKey(r.Context(), pid)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "unknown account")
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// OptionalAuthenticator resolves the caller when credentials are present
// but lets anonymous requests through. Invalid credentials are still
// rejected rather than silently downgraded.
func OptionalAuthenticator(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
				user, err := resolver.FindByAPIKey(r.Context(), apiKey)
				if err != nil {
					common.RespondWithError(w, http.StatusUnauthorized, "invalid API key")
					return
				}
				next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
				return
			}
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				next.ServeHTTP(w, r)
				return
			}
			pid, err := security.GetPidFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}
			user, err := resolver.FindByClaimsKey(r.Context(), pid)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "unknown account")
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// RequireRole rejects callers whose role is not in the allowed set. It must
// run after Authenticator.
func RequireRole(allowed ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				common.RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			common.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

func withUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userCtxKey).(*model.User)
	return user, ok
}
