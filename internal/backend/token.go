package backend

import "context"

type tokenKey struct{}

// WithToken returns a context carrying the caller's bearer token. The client
// forwards it on every outbound request.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom extracts the bearer token from ctx, or "" when absent.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
