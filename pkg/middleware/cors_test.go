package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
)

func TestCORSConfig(t *testing.T) {
	e := echo.New()
	e.Use(middleware.CORSWithConfig(CORSConfig([]string{"http://localhost:5173"})))
	e.GET("/api/v1/contacts", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"allowed origin", "http://localhost:5173", "http://localhost:5173"},
		{"other origin", "https://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/contacts", nil)
			req.Header.Set(echo.HeaderOrigin, tt.origin)
			req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPatch)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
			if tt.want != "" {
				assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPatch)
			}
		})
	}
}
