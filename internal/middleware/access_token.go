package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/damacus/bucket-explorer/internal/utils"
)

const apiPrefix = "/api/"

// AccessToken guards /api/* and /metrics with a shared token read from the
// X-Explorer-Token header or the ExplorerToken cookie. Visiting any page
// with ?token=<token> stores the cookie. An empty token disables the guard.
func AccessToken(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if token == "" {
			return next
		}

		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if !strings.HasPrefix(path, apiPrefix) && path != "/metrics" {
				if q := c.QueryParam("token"); q != "" && tokenMatches(q, token) {
					setTokenCookie(c, token, 0)
				}
				return next(c)
			}

			if tokenMatches(c.Request().Header.Get(utils.AccessTokenHeader), token) {
				return next(c)
			}

			cookie, err := c.Cookie(utils.CookieName)
			if err == nil {
				if tokenMatches(cookie.Value, token) {
					return next(c)
				}
				// Stale cookie - clear it
				setTokenCookie(c, "", -1)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing or invalid access token.")
		}
	}
}

func tokenMatches(got, want string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func setTokenCookie(c echo.Context, value string, maxAge int) {
	c.SetCookie(&http.Cookie{
		Name:     utils.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   isSecureRequest(c.Request()),
		SameSite: http.SameSiteStrictMode,
	})
}
