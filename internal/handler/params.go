package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/laundry-booking/backend/internal/auth"
	"github.com/pkordes/laundry-booking/backend/internal/domain"
)

// bindWindow binds the required ?start= and ?end= query parameters
// (RFC 3339 timestamps).
func bindWindow(r *http.Request) (start, end time.Time, err error) {
	q := r.URL.Query()
	if err = runtime.BindQueryParameter("form", true, true, "start", q, &start); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err = runtime.BindQueryParameter("form", true, true, "end", q, &end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// bindID binds the {id} path parameter as a UUID.
func bindID(r *http.Request) (uuid.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	return id, err
}

// requireCaller rejects requests that carry no verified identity.
func requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.FromContext(r.Context()); !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="laundry"`)
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin lets through callers whose directory entry has the admin role.
// Callers missing from the directory are refused like any other non-admin.
// It must run after requireCaller.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := callerName(r)
		res, err := s.residents.Lookup(r.Context(), caller)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.writeServiceError(w, r, err)
			return
		}
		if res.Role != domain.RoleAdmin {
			s.log.InfoContext(r.Context(), "admin route refused", "caller", caller)
			writeError(w, http.StatusForbidden, "forbidden", "administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// callerName returns the authenticated username, or "" for anonymous requests.
func callerName(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	return id.Username
}
