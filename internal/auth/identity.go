package auth

import "context"

// Identity is the resolved principal of an inbound request. UserID is 0
// when the request was resolved from the principal cookie alone; the
// username is always present and is what services re-load the user by.
type Identity struct {
	UserID   int64
	Username string
}

type contextKey struct{}

// WithIdentity returns a context carrying the resolved identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFrom extracts the identity resolved by the auth middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok && id.Username != ""
}
