package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubLimiterStore struct {
	counts map[string]int64
	err    error
	scopes []string
}

func newStubLimiterStore() *stubLimiterStore {
	return &stubLimiterStore{counts: map[string]int64{}}
}

func (s *stubLimiterStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if s.err != nil {
		return false, 0, s.err
	}
	s.scopes = append(s.scopes, scope)
	s.counts[scope]++
	count := s.counts[scope]
	return count <= limit, count, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(t *testing.T, handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/abc/payments", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	t.Parallel()

	store := newStubLimiterStore()
	policy := NewRateLimitPolicy("payment", time.Minute, 2)
	handler := RateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 2; i++ {
		if rec := doRequest(t, handler, "10.0.0.1:4000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}
	if rec := doRequest(t, handler, "10.0.0.1:4000"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: got status %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}

func TestRateLimitScopesPerClientIP(t *testing.T) {
	t.Parallel()

	store := newStubLimiterStore()
	policy := NewRateLimitPolicy("payment", time.Minute, 1)
	handler := RateLimit(policy, store, nil)(okHandler())

	if rec := doRequest(t, handler, "10.0.0.1:4000"); rec.Code != http.StatusOK {
		t.Fatalf("first client: got status %d, want %d", rec.Code, http.StatusOK)
	}
	if rec := doRequest(t, handler, "10.0.0.2:4000"); rec.Code != http.StatusOK {
		t.Fatalf("second client: got status %d, want %d", rec.Code, http.StatusOK)
	}
	if got, want := store.scopes[0], "payment:ip:10.0.0.1"; got != want {
		t.Fatalf("scope = %q, want %q", got, want)
	}
	if got, want := store.scopes[1], "payment:ip:10.0.0.2"; got != want {
		t.Fatalf("scope = %q, want %q", got, want)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	t.Parallel()

	store := newStubLimiterStore()
	policy := NewRateLimitPolicy("payment", 0, 0)
	handler := RateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 5; i++ {
		if rec := doRequest(t, handler, "10.0.0.1:4000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}
	if len(store.scopes) != 0 {
		t.Fatalf("store consulted %d times, want 0", len(store.scopes))
	}
}
