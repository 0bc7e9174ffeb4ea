package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/digidocs/digidocs/internal/platform/auth"
)

// Logger emits one structured line per request. Authenticated requests carry
// the acting user id and role, so clinical mutations can be traced back to a
// clinic user without a separate audit layer.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			ctx := c.Request().Context()
			if userID := auth.UserIDFromContext(ctx); userID > 0 {
				evt = evt.Int64("user_id", userID).Str("role", auth.RoleFromContext(ctx))
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
