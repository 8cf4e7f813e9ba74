package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	token, err := tokens.Issue(User{ID: 7, Username: "john"})
	require.NoError(t, err)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "john", claims.Username)
}

func TestTokensRejectWrongSecretAndExpiry(t *testing.T) {
	token, err := NewTokens("secret", time.Hour).Issue(User{ID: 7, Username: "john"})
	require.NoError(t, err)

	_, err = NewTokens("other", time.Hour).Parse(token)
	assert.Error(t, err)

	expired, err := NewTokens("secret", -time.Minute).Issue(User{ID: 7, Username: "john"})
	require.NoError(t, err)
	_, err = NewTokens("secret", time.Hour).Parse(expired)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	token, err := tokens.Issue(User{ID: 3, Username: "jane"})
	require.NoError(t, err)

	var got Identity
	handler := tokens.Middleware(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "header", header: "Bearer " + token, status: http.StatusNoContent},
		{name: "query", query: "?token=" + token, status: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = Identity{}
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, Identity{ID: 3, Username: "jane"}, got)
			}
		})
	}
}

func TestLimiter(t *testing.T) {
	limiter := NewLimiter(0.001, 2)

	assert.True(t, limiter.Allow("1.2.3.4"))
	assert.True(t, limiter.Allow("1.2.3.4"))
	assert.False(t, limiter.Allow("1.2.3.4"))
	assert.True(t, limiter.Allow("5.6.7.8"))
}

func TestLimiterSweepDropsRefilledBuckets(t *testing.T) {
	limiter := NewLimiter(10, 2)

	require.True(t, limiter.Allow("1.2.3.4"))
	require.True(t, limiter.Allow("5.6.7.8"))
	require.True(t, limiter.Allow("5.6.7.8"))
	require.False(t, limiter.Allow("5.6.7.8"))

	// Neither bucket has refilled yet.
	assert.Equal(t, 2, limiter.Sweep(time.Now()))
	// At 10/s both are full again well within a minute.
	assert.Equal(t, 0, limiter.Sweep(time.Now().Add(time.Minute)))

	assert.True(t, limiter.Allow("5.6.7.8"))
	assert.True(t, limiter.Allow("5.6.7.8"))
	assert.False(t, limiter.Allow("5.6.7.8"))
}

func TestLimiterSweepKeepsThrottledKeys(t *testing.T) {
	limiter := NewLimiter(0.001, 1)

	require.True(t, limiter.Allow("1.2.3.4"))
	assert.Equal(t, 1, limiter.Sweep(time.Now().Add(time.Second)))
	assert.False(t, limiter.Allow("1.2.3.4"))
}

func TestLimiterRunStopsWithContext(t *testing.T) {
	limiter := NewLimiter(1000, 1)
	require.True(t, limiter.Allow("1.2.3.4"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		limiter.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		limiter.mu.Lock()
		defer limiter.mu.Unlock()
		return len(limiter.limiters) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
