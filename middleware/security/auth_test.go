package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	live := map[string]bool{"s1": true}

	r := gin.New()
	r.GET("/me", Middleware(Options{Exists: func(id string) bool { return live[id] }}), func(c *gin.Context) {
		c.String(http.StatusOK, SessionID(c))
	})

	tests := []struct {
		name   string
		cookie *http.Cookie
		status int
		body   string
	}{
		{"no cookie", nil, http.StatusUnauthorized, ""},
		{"unknown session", &http.Cookie{Name: "user", Value: "ghost"}, http.StatusUnauthorized, ""},
		{"wrong cookie name", &http.Cookie{Name: "other", Value: "s1"}, http.StatusUnauthorized, ""},
		{"live session", &http.Cookie{Name: "user", Value: "s1"}, http.StatusOK, "s1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status || w.Body.String() != tt.body {
				t.Errorf("got %d %q, want %d %q", w.Code, w.Body.String(), tt.status, tt.body)
			}
		})
	}
}
