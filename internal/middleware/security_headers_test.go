package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeadersServer() *echo.Echo {
	e := echo.New()
	e.Use(SecurityHeaders())
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "OK") }
	e.GET("/health", ok)
	e.POST("/api/s3/list-buckets", ok)
	return e
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		target   string
		secure   bool
		proto    string
		noStore  bool
		wantHSTS bool
	}{
		{name: "page over http", method: http.MethodGet, target: "/health"},
		{name: "api response is not cached", method: http.MethodPost, target: "/api/s3/list-buckets", noStore: true},
		{name: "tls adds hsts", method: http.MethodGet, target: "/health", secure: true, wantHSTS: true},
		{name: "forwarded https adds hsts", method: http.MethodGet, target: "/health", proto: "HTTPS", wantHSTS: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.secure {
				req.TLS = &tls.ConnectionState{}
			}
			if tt.proto != "" {
				req.Header.Set(echo.HeaderXForwardedProto, tt.proto)
			}
			rec := httptest.NewRecorder()
			newHeadersServer().ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			for name, value := range baselineHeaders {
				assert.Equal(t, value, rec.Header().Get(name), name)
			}

			if tt.noStore {
				assert.Equal(t, "no-store", rec.Header().Get(echo.HeaderCacheControl))
			} else {
				assert.Empty(t, rec.Header().Get(echo.HeaderCacheControl))
			}

			if tt.wantHSTS {
				assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get(echo.HeaderStrictTransportSecurity))
			} else {
				assert.Empty(t, rec.Header().Get(echo.HeaderStrictTransportSecurity))
			}
		})
	}
}

func TestSecurityHeadersCSPAllowsNoThirdPartyScripts(t *testing.T) {
	assert.Contains(t, contentSecurityPolicy, "script-src 'self';")
	assert.Contains(t, contentSecurityPolicy, "frame-ancestors 'none'")
	assert.NotContains(t, contentSecurityPolicy, "https://")
}
