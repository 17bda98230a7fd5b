package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pinball/internal/admin"
	"github.com/playmatatu/pinball/internal/config"
)

func setupRouter(cfg *config.Config, handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"admin": c.GetString("admin_username")})
	})
	r.GET("/x", handlers...)
	return r
}

func TestAdminAuth(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret"}
	r := setupRouter(cfg, AdminAuth(cfg, admin.RoleTables))

	tablesToken, _, _ := admin.IssueToken("secret", "ops", []string{admin.RoleTables}, time.Hour)
	runsToken, _, _ := admin.IssueToken("secret", "ops", []string{admin.RoleAudit}, time.Hour)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"missing role", "Bearer " + runsToken, http.StatusForbidden},
		{"ok", "Bearer " + tablesToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestWebSocketCORSCheck(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		origin string
		want   int
	}{
		{"dev localhost", "development", "http://localhost:3000", http.StatusOK},
		{"dev foreign", "development", "https://evil.example", http.StatusForbidden},
		{"prod frontend", "production", "https://pinball.example", http.StatusOK},
		{"prod localhost", "production", "http://localhost:5173", http.StatusForbidden},
		{"no origin", "production", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Environment: tt.env, FrontendURL: "https://pinball.example"}
			r := setupRouter(cfg, WebSocketCORSCheck(cfg))
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Connection", "Upgrade")
			req.Header.Set("Upgrade", "websocket")
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestWebSocketCORSCheckIgnoresPlainRequests(t *testing.T) {
	cfg := &config.Config{Environment: "production"}
	r := setupRouter(cfg, WebSocketCORSCheck(cfg))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", w.Code)
	}
}
