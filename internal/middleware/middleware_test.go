package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/pkg/logger_i"
	"github.com/stretchr/testify/assert"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	trace, _ := r.Context().Value(config.TRACE_ID_KEY).(string)
	w.Header().Set("X-Seen-Trace", trace)
	w.WriteHeader(http.StatusOK)
}

func TestIsValidBearerToken(t *testing.T) {
	log := logger_i.NewLogger("test")
	c := NewChain(config.Settings{AuthToken: "secret"})

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid", "Bearer secret", true},
		{"empty", "", false},
		{"no bearer prefix", "secret", false},
		{"wrong token", "Bearer nope", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsValidBearerToken(tt.header, log))
		})
	}

	t.Run("bypass", func(t *testing.T) {
		bypass := NewChain(config.Settings{NoAuthBypass: true})
		assert.True(t, bypass.IsValidBearerToken("", log))
	})

	t.Run("no configured token rejects everything", func(t *testing.T) {
		assert.False(t, NewChain(config.Settings{}).IsValidBearerToken("Bearer ", log))
	})
}

func TestWrapInjectsTraceAndAuthenticates(t *testing.T) {
	h := NewChain(config.Settings{AuthToken: "secret"}).Wrap(okHandler)

	t.Run("authorized keeps incoming trace", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/status/1", nil)
		req.Header.Set("Authorization", "Bearer secret")
		req.Header.Set("X-Trace-Id", "trace-abc")
		rec := httptest.NewRecorder()
		h(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "trace-abc", rec.Header().Get("X-Seen-Trace"))
		assert.Equal(t, "trace-abc", rec.Header().Get("X-Trace-Id"))
	})

	t.Run("generates a trace when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/status/1", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		h(rec, req)

		assert.NotEmpty(t, rec.Header().Get("X-Seen-Trace"))
	})

	t.Run("unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/status/1", nil)
		rec := httptest.NewRecorder()
		h(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Unauthorized")
	})
}

func TestWrapChat(t *testing.T) {
	h := NewChain(config.Settings{AuthToken: "secret"}).WrapChat(okHandler)

	t.Run("preflight skips auth and carries cors headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
		rec := httptest.NewRecorder()
		h(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("unauthorized uses the chat error shape", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		rec := httptest.NewRecorder()
		h(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"success":false,"error":"Unauthorized"}`, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("rate limit per ip", func(t *testing.T) {
		limited := NewChain(config.Settings{NoAuthBypass: true}).WrapChat(okHandler)
		codes := make([]int, 0, config.BURST_RATE_LIMIT_PER_SECOND+1)
		for i := 0; i < config.BURST_RATE_LIMIT_PER_SECOND+1; i++ {
			req := httptest.NewRequest(http.MethodPost, "/chat", nil)
			req.RemoteAddr = "10.0.0.7:5555"
			rec := httptest.NewRecorder()
			limited(rec, req)
			codes = append(codes, rec.Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, codes[len(codes)-1])
		for _, c := range codes[:config.BURST_RATE_LIMIT_PER_SECOND] {
			assert.Equal(t, http.StatusOK, c)
		}
	})
}

func TestIPRateLimiterForgetsIdleAddresses(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	first := l.GetLimiter("10.0.0.1")
	assert.Same(t, first, l.GetLimiter("10.0.0.1"))
	l.GetLimiter("10.0.0.2")
	assert.Equal(t, 2, l.Len())

	clock = clock.Add(idleLimiterTTL + time.Minute)
	l.GetLimiter("10.0.0.3")
	assert.Equal(t, 1, l.Len())
	assert.NotSame(t, first, l.GetLimiter("10.0.0.1"))
}
