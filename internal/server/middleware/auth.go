package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/gosuda/taskboard/internal/auth"
)

// Auth requires a valid bearer token signed with secret. Browsers cannot set
// headers on a websocket upgrade, so an access_token query parameter is
// accepted as well.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				tok = r.URL.Query().Get("access_token")
			}

			if tok != "" {
				claims, err := auth.ValidateToken(secret, tok)
				if err == nil {
					ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				hlog.FromRequest(r).Debug().Err(err).Msg("auth: token rejected")
			}

			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`))
		})
	}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
