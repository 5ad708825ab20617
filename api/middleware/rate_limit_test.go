package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	pkgredis "github.com/stylebazaar/stylebazaar-backend/pkg/redis"
)

func newRedisStore(t *testing.T) *pkgredis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return pkgredis.NewFromRedis(client)
}

func couponRequest(session, ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/coupon", nil)
	req.RemoteAddr = ip + ":5555"
	return req.WithContext(WithCartSession(req.Context(), session))
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	store := newRedisStore(t)
	policy := NewRateLimitPolicy("coupon", time.Minute, 5, 3)
	h := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, couponRequest("s-1", "10.0.0.1"))
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i, resp.Code)
		}
	}
}

func TestRateLimitSessionLimitTriggers(t *testing.T) {
	store := newRedisStore(t)
	policy := NewRateLimitPolicy("coupon", time.Minute, 100, 2)
	h := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		h.ServeHTTP(last, couponRequest("s-1", "10.0.0.1"))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", last.Code)
	}
	if got := last.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("expected Retry-After 60, got %q", got)
	}

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, couponRequest("s-2", "10.0.0.1"))
	if resp.Code != http.StatusOK {
		t.Fatalf("other session should pass, got %d", resp.Code)
	}
}

func TestRateLimitIPLimitTriggers(t *testing.T) {
	store := newRedisStore(t)
	policy := NewRateLimitPolicy("coupon", time.Minute, 2, 100)
	h := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := []int{}
	for _, session := range []string{"a", "b", "c"} {
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, couponRequest(session, "10.0.0.9"))
		codes = append(codes, resp.Code)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third request from same ip to be limited, got %v", codes)
	}
}

type failingLimiter struct{}

func (failingLimiter) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return false, 0, context.DeadlineExceeded
}

func TestRateLimitStoreFailure(t *testing.T) {
	policy := NewRateLimitPolicy("coupon", time.Minute, 1, 1)
	h := RateLimit(policy, failingLimiter{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, couponRequest("s", "10.0.0.1"))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
