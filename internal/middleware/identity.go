package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkordes/laundry-booking/backend/internal/auth"
)

// TokenVerifier turns a raw bearer token into a caller identity.
// *auth.Verifier satisfies it.
type TokenVerifier interface {
	Verify(raw string) (auth.Identity, error)
}

// NewIdentityHandler returns a middleware that resolves the caller from an
// "Authorization: Bearer <token>" header. A verified caller is stored in the
// request context (see auth.FromContext). A request without the header passes
// through anonymously; routes that need a caller enforce that themselves.
// A header that is present but malformed or unverifiable is answered with 401.
func NewIdentityHandler(v TokenVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := bearerToken(header)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			id, err := v.Verify(raw)
			if err != nil {
				log.DebugContext(r.Context(), "token rejected", "error", err)
				unauthorized(w, "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="laundry"`)
	writeError(w, http.StatusUnauthorized, "unauthorized", msg)
}
