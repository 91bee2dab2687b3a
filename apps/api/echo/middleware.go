package echoapi

import (
	"math"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/tenant"
)

const contextEndpointKey = "endpoint"

// HTTPMetrics records the served requests.
type HTTPMetrics interface {
	RecordHTTPRequest(method, path string, statusCode int, d time.Duration)
}

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// tenantMiddleware scopes the request to the tenant of the token.
// A client stating another tenant in the X-Tenant-ID header is denied.
func tenantMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		if claims.TenantID == "" {
			return tenant.ErrMissing
		}
		if h := ctx.Request().Header.Get(tenant.HeaderName); h != "" && h != claims.TenantID {
			return errTenantMismatch
		}

		req := ctx.Request()
		ctx.SetRequest(req.WithContext(tenant.With(req.Context(), claims.TenantID)))
		return next(ctx)
	}
}

func contextEndpoint(ctx echo.Context) resource.Endpoint {
	ep, _ := ctx.Get(contextEndpointKey).(resource.Endpoint)
	return ep
}

// readMiddleware lets staff members read every resource, and others the resources they may write.
func readMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		if claims.IsStaff || contextHasAnyRole(ctx, contextEndpoint(ctx).Schema().WriteRoles) {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

func writeMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if contextHasAnyRole(ctx, contextEndpoint(ctx).Schema().WriteRoles) {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

// rateLimitMiddleware allows each client IP perSecond requests per second.
func rateLimitMiddleware(perSecond float64) echo.MiddlewareFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
		burst    = int(math.Max(1, math.Ceil(perSecond)))
	)
	limiter := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rate.Limit(perSecond), burst)
			limiters[ip] = l
		}
		return l
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !limiter(ctx.RealIP()).Allow() {
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}

// metricsMiddleware records every request under its route pattern.
// Errors are handled here so that the recorded status is the one sent.
func metricsMiddleware(m HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil && !ctx.Response().Committed {
				ctx.Error(err)
			}
			m.RecordHTTPRequest(ctx.Request().Method, ctx.Path(), ctx.Response().Status, time.Since(start))
			return nil
		}
	}
}
