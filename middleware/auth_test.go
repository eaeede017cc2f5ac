package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"road-risk-api/config"
	"road-risk-api/models"
	"road-risk-api/services"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(auth *services.AuthService, mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/me", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	auth := services.NewAuthService(config.JWTConfig{Secret: "test", ExpiryHours: 1})
	token, err := auth.IssueToken(models.User{ID: 7, Email: "a@b.es", Role: "user"})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	r := newRouter(auth, RequireAuth(auth))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	auth := services.NewAuthService(config.JWTConfig{Secret: "test", ExpiryHours: 1})
	token, _ := auth.IssueToken(models.User{ID: 9})
	r := newRouter(auth, OptionalAuth(auth))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != `{"user_id":0}` {
		t.Errorf("anonymous: got %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != `{"user_id":9}` {
		t.Errorf("authenticated: got %s", w.Body.String())
	}
}
