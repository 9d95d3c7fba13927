package middleware

import "context"

// SetRequestIDForTest injects a request id without running the middleware.
func SetRequestIDForTest(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, id)
}
