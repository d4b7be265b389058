package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func limiterRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rl := NewRateLimiter(rps, burst, KeyByUserOrIP())
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	r := limiterRouter(100, 5)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d rejected: %d", i, w.Code)
		}
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	r := limiterRouter(0, 1) // one token, no refill

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request rejected: %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
}

func TestRateLimiter_BucketsPerUser(t *testing.T) {
	r := limiterRouter(0, 1)

	for _, user := range []string{"u1", "u2"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("user %s sharing another user's bucket: %d", user, w.Code)
		}
	}

	// u1's bucket is drained though.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("drained bucket still allows: %d", w.Code)
	}
}

func TestKeyByUserOrIP_Precedence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keyFn := KeyByUserOrIP()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if key := keyFn(c); key == "" || key[:3] != "ip:" {
		t.Fatalf("anonymous key = %q, want ip:*", key)
	}

	c.Request.Header.Set("X-User-ID", "abc")
	if key := keyFn(c); key != "user:abc" {
		t.Fatalf("header key = %q", key)
	}

	c.Set("userID", "ctx-user")
	if key := keyFn(c); key != "user:ctx-user" {
		t.Fatalf("context key = %q", key)
	}
}
