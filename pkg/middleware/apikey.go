package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/huymai96/package-confirmation-app/pkg/tracing"
)

// HeaderAPIKey carries the shared key the upload scripts and scan stations
// authenticate with.
const HeaderAPIKey = "x-api-key"

// APIKey guards mutating store endpoints. The key may arrive in the
// x-api-key header or, for station-side GET tooling, the "key" query param.
func APIKey(logger ectologger.Logger, key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ctx, span := tracing.StartSpan(ctx, "middleware.APIKey")
			defer span.End()

			provided := c.Request().Header.Get(HeaderAPIKey)
			if provided == "" {
				provided = c.QueryParam("key")
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				logger.WithContext(ctx).Warn("request has missing or invalid api key")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
			}

			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
