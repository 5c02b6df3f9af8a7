package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/room-reservation/internal/config"
	"github.com/iliyamo/room-reservation/internal/utils"
)

const secret = "test-secret"

func protected() *echo.Echo {
	e := echo.New()
	g := e.Group("", JWTAuth(secret), RequireRole(RoleAdmin, RoleReceptionist))
	g.GET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, UserID(c))
	})
	return e
}

func call(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := protected()

	valid, err := utils.NewAccessToken(secret, "staff-7", RoleReceptionist, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	wrongRole, _ := utils.NewAccessToken(secret, "staff-8", "GUEST", time.Hour)
	otherKey, _ := utils.NewAccessToken("another-secret", "staff-7", RoleAdmin, time.Hour)
	expired, _ := utils.NewAccessToken(secret, "staff-7", RoleAdmin, -time.Minute)
	numeric, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  12,
		"role": RoleAdmin,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))

	tests := []struct {
		name     string
		token    string
		wantCode int
		wantBody string
	}{
		{"valid", valid.Token, http.StatusOK, "staff-7"},
		{"numeric subject", numeric, http.StatusOK, "12"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong key", otherKey.Token, http.StatusUnauthorized, ""},
		{"expired", expired.Token, http.StatusUnauthorized, ""},
		{"garbage", "abc.def.ghi", http.StatusUnauthorized, ""},
		{"role not allowed", wrongRole.Token, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(e, tt.token)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/reservations")
	c.Set(ContextUserID, "staff-7")

	tests := map[string]string{
		"ip":      "rl:ip:10.0.0.1",
		"user":    "rl:user:staff-7",
		"ip_user": "rl:ip:10.0.0.1:user:staff-7",
		"route":   "rl:route:POST /v1/reservations",
		"":        "rl:ip:10.0.0.1:user:staff-7:route:POST /v1/reservations",
	}
	for strategy, want := range tests {
		cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}
		if got := RateKey(cfg, c); got != want {
			t.Errorf("RateKey(%q) = %q, want %q", strategy, got, want)
		}
	}
}

func TestRateLimiterDisabledPassesThrough(t *testing.T) {
	mw := NewRateLimiter(config.RateLimitConfig{Enabled: true, Limit: 1}, nil)
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, mw)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
}

func TestRateLimiterFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.RateLimitConfig{Enabled: true, Limit: 2, Window: time.Minute, KeyStrategy: "ip", Prefix: "rl"}
	e := echo.New()
	e.POST("/v1/reservations", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, NewRateLimiter(cfg, rdb))

	hit := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/reservations", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for i, wantRemaining := range []string{"1", "0"} {
		rec := hit("10.0.0.1")
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Errorf("request %d remaining = %s, want %s", i, got, wantRemaining)
		}
	}
	rec := hit("10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	if rec := hit("10.0.0.2"); rec.Code != http.StatusCreated {
		t.Errorf("other client status = %d, want 201", rec.Code)
	}

	mr.FastForward(time.Minute)
	if rec := hit("10.0.0.1"); rec.Code != http.StatusCreated {
		t.Errorf("status after window = %d, want 201", rec.Code)
	}
}
