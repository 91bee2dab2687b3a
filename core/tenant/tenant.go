package tenant

import (
	"context"
	"errors"
)

type contextKey string

const (
	tenantIDKey contextKey = "tenant_id"

	// HeaderName is the HTTP header a client may use to state the tenant it is working on.
	HeaderName = "X-Tenant-ID"
)

// ErrMissing is returned when a tenant scoped operation runs without a tenant in its context.
var ErrMissing = errors.New("missing tenant")

// FromContext extracts the tenant ID from the context.
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tenantIDKey).(string); ok {
		return v
	}
	return ""
}

// Require is like FromContext but fails when no tenant is set.
func Require(ctx context.Context) (string, error) {
	id := FromContext(ctx)
	if id == "" {
		return "", ErrMissing
	}
	return id, nil
}

// With returns a context with the tenant ID set.
func With(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}
