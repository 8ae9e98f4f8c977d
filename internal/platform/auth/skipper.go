package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that bypass authentication. These are
// infrastructure endpoints and the login endpoint itself.
var publicPaths = map[string]bool{
	"/health":              true,
	"/api/v1/auth/login":   true,
	"/api/v1/his/sessions": true,
}

// externalEligiblePaths lists routes that accept an external session code in
// place of a local token. Only the save-to-local operation needs this.
var externalEligiblePaths = map[string]bool{
	"/api/v1/service-requests/:code/save-to-local": true,
}

// Skipper returns true for requests whose path should skip authentication.
func Skipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// ExternalEligible reports whether the matched route may authenticate with
// an external session code.
func ExternalEligible(c echo.Context) bool {
	return externalEligiblePaths[c.Path()]
}
