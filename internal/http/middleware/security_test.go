package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securityRouter(opt SecurityOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(opt))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := securityRouter(SecurityOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	h := w.Header()
	if h.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff")
	}
	if h.Get("X-Frame-Options") != "DENY" {
		t.Fatalf("missing frame denial")
	}
	if h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("missing referrer policy")
	}
	// HSTS must never apply on plain HTTP.
	if h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("unexpected HSTS on HTTP")
	}
}

func TestSecurityHeaders_OptionalHeaders(t *testing.T) {
	r := securityRouter(SecurityOptions{NoStore: true, EnablePolicy: true})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("NoStore not applied")
	}
	if w.Header().Get("Permissions-Policy") == "" {
		t.Fatalf("EnablePolicy not applied")
	}
}

func TestSecurityHeaders_HSTSBehindProxy(t *testing.T) {
	r := securityRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=3600; includeSubDomains; preload" {
		t.Fatalf("unexpected HSTS header: %q", got)
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(SecurityHeaders(SecurityOptions{}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "X-Request-ID" {
		t.Fatalf("expose header = %q", got)
	}
}
