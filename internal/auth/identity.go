// Package auth verifies bearer tokens and carries the caller's identity
// through the request context.
package auth

import "context"

// Identity is the authenticated caller of a request. Roles are not part of
// it: permissions are resolved from the resident directory.
type Identity struct {
	Username string
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
// ok is false for unauthenticated requests.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.Username == "" {
		return Identity{}, false
	}
	return id, true
}
