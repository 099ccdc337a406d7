package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// callerIdentity extracts the auth claims injected by the Auth middleware
// and performs a fast-fail check before any service call: both the role and
// the username must be present, proving the middleware ran and the token
// identifies an actor for the audit fields.
func callerIdentity(c echo.Context) (role, username string, err error) {
	role, _ = c.Get("role").(string)
	username, _ = c.Get("username").(string)
	if role == "" || username == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return role, username, nil
}

// correlationID returns the request id assigned by the RequestID middleware;
// it travels with every lifecycle event produced by the request.
func correlationID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
