package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// bearerAuth returns a middleware that validates bearer tokens.
// If token is empty, no authentication is required and all requests pass through.
// Otherwise, requests must include "Authorization: Bearer <token>" header.
func bearerAuth(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if token == "" {
			return next
		}
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			presented, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok {
				return failure(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", "bearer token required")
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				return failure(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", "")
			}
			return next(c)
		}
	}
}
