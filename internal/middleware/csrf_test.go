package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCSRFServer() *echo.Echo {
	e := echo.New()
	e.Use(CSRF())
	e.GET("/", func(c echo.Context) error {
		token, _ := c.Get("csrf").(string)
		return c.String(http.StatusOK, token)
	})
	e.POST("/api/profiles", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

// issueCSRF loads the index page and returns the token and its cookie
func issueCSRF(t *testing.T, e *echo.Echo) (string, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	token := strings.TrimSpace(rec.Body.String())
	require.NotEmpty(t, token)
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "csrf" {
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
			return token, cookie
		}
	}
	t.Fatal("csrf cookie not set")
	return "", nil
}

func TestCSRF(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		withToken   bool
		want        int
	}{
		{name: "form post without token", contentType: echo.MIMEApplicationForm, body: "endpoint=x", want: http.StatusBadRequest},
		{name: "plain text post without token", contentType: echo.MIMETextPlain, body: `{"endpoint":"x"}`, want: http.StatusBadRequest},
		{name: "form post with token", contentType: echo.MIMEApplicationForm, body: "endpoint=x", withToken: true, want: http.StatusOK},
		{name: "json post is skipped", contentType: "application/json; charset=utf-8", body: `{}`, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newCSRFServer()

			req := httptest.NewRequest(http.MethodPost, "/api/profiles", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, tt.contentType)
			if tt.withToken {
				token, cookie := issueCSRF(t, e)
				req.Header.Set("X-CSRF-Token", token)
				req.AddCookie(cookie)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestIsJSONRequest(t *testing.T) {
	for contentType, want := range map[string]bool{
		"application/json":                 true,
		" Application/JSON; charset=utf-8": true,
		"text/plain":                       false,
		"":                                 false,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(echo.HeaderContentType, contentType)
		assert.Equal(t, want, isJSONRequest(req), contentType)
	}
}
