package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"service-dispatch/internal/auth"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(raw string) (uuid.UUID, error)
}

// AccountLookup loads an account. Absent accounts are nil.
type AccountLookup interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// Authenticate resolves the bearer token into an auth.Principal.
// Roles come from the stored account, not from token claims.
func Authenticate(verifier TokenVerifier, accounts AccountLookup, logger logx.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logx.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				deny(w, http.StatusUnauthorized, "missing bearer token", "UNAUTHORIZED")
				return
			}
			userID, err := verifier.Verify(raw)
			if err != nil {
				logger.Debug("token rejected", logx.Err(err))
				deny(w, http.StatusUnauthorized, "invalid token", "UNAUTHORIZED")
				return
			}
			acc, err := accounts.GetAccount(r.Context(), userID)
			if err != nil {
				logger.Error("account lookup failed", logx.String("user_id", userID.String()), logx.Err(err))
				deny(w, http.StatusInternalServerError, "internal error", "")
				return
			}
			if acc == nil {
				deny(w, http.StatusUnauthorized, "unknown account", "UNAUTHORIZED")
				return
			}
			if acc.IsBanned {
				deny(w, http.StatusForbidden, "account is banned", "ACCOUNT_BANNED")
				return
			}

			ctx := auth.WithPrincipal(r.Context(), auth.Principal{UserID: acc.ID, Roles: acc.Roles})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole admits principals holding at least one of roles.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.FromContext(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
				return
			}
			for _, role := range roles {
				if p.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			deny(w, http.StatusForbidden, "role required", "ROLE_REQUIRED")
		})
	}
}

func deny(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{"error": msg}
	if code != "" {
		body["code"] = code
	}
	_ = json.NewEncoder(w).Encode(body)
}
