package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/igreja/core/user"
	"github.com/trezcool/igreja/services/metrics"
)

// requirePermission lets the request through when the caller's profile grants perm.
func requirePermission(perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if user.HasPermission(claims.Profile, perm) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// requireAnyPermission lets the request through when the caller's profile grants one of perms.
func requireAnyPermission(perms ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			for _, perm := range perms {
				if user.HasPermission(claims.Profile, perm) {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func metricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)

			code := ctx.Response().Status
			if err != nil {
				if herr, ok := err.(*echo.HTTPError); ok {
					code = herr.Code
				}
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(route, ctx.Request().Method, strconv.Itoa(code), start)
			return err
		}
	}
}
