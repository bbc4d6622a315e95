package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route paths that bypass session authentication.
var publicPaths = map[string]bool{
	"/health":     true,
	"/auth/login": true,
}

// AuthSkipper returns true for requests whose path should skip authentication.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given path is reachable without a session.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
