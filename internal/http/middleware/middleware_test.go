package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/auth"
	"github.com/jmehdipour/inventory-sim/internal/delay"
	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/jmehdipour/inventory-sim/internal/ratelimit"
	"github.com/jmehdipour/inventory-sim/internal/tier"
	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	return ts
}

func bearer(t *testing.T, ts *auth.TokenService, id string, tr model.Tier) string {
	t.Helper()
	tok, _, err := ts.Issue(id, tr)
	require.NoError(t, err)
	return "Bearer " + tok
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func do(e *echo.Echo, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	ts := newTokens(t)
	e := echo.New()
	e.GET("/x", func(c echo.Context) error {
		p, ok := PrincipalFromCtx(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.String(http.StatusOK, p.CustomerID+"/"+p.Tier.String())
	}, JWTAuth(ts))

	rec := do(e, bearer(t, ts, "CUST002", model.TierPremium))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CUST002/premium", rec.Body.String())

	other, err := auth.NewTokenService("other-secret", time.Hour)
	require.NoError(t, err)

	for name, h := range map[string]string{
		"missing":      "",
		"no scheme":    "abc",
		"basic":        "Basic dXNlcjpwYXNz",
		"empty token":  "Bearer ",
		"garbage":      "Bearer not.a.jwt",
		"wrong secret": bearer(t, other, "CUST002", model.TierPremium),
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(e, h)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestRateLimitMiddleware_HeadersAndDeny(t *testing.T) {
	ts := newTokens(t)
	lim := ratelimit.NewMemoryLimiter(tier.Default(), 0)
	defer lim.Close()
	now := time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC)

	e := echo.New()
	e.GET("/x", ok, JWTAuth(ts), RateLimitMiddleware(RateLimitConfig{
		Limiter: lim,
		Now:     func() time.Time { return now },
	}))
	h := bearer(t, ts, "CUST001", model.TierStandard)

	for i := 1; i <= 30; i++ {
		rec := do(e, h)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		assert.Equal(t, "30", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(30-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := do(e, h)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2700", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	reset := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, strconv.FormatInt(reset, 10), rec.Header().Get("X-RateLimit-Reset"))

	// a different customer is unaffected
	rec = do(e, bearer(t, ts, "CUST009", model.TierStandard))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type failingLimiter struct{}

func (failingLimiter) CheckAndIncrement(context.Context, string, model.Tier, time.Time) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("boom")
}

func TestRateLimitMiddleware_LimiterError(t *testing.T) {
	ts := newTokens(t)
	e := echo.New()
	e.GET("/x", ok, JWTAuth(ts), RateLimitMiddleware(RateLimitConfig{Limiter: failingLimiter{}}))

	rec := do(e, bearer(t, ts, "CUST001", model.TierStandard))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDelay_CancelledRequest(t *testing.T) {
	ts := newTokens(t)
	slow := &delay.Tiered{
		Base: map[model.Tier]time.Duration{model.TierStandard: time.Minute},
		Rand: func() float64 { return 1 },
	}
	e := echo.New()
	e.GET("/x", ok, JWTAuth(ts), Delay(slow, nil))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/x", nil).WithContext(ctx)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, ts, "CUST001", model.TierStandard))
	rec := httptest.NewRecorder()

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestTimeout, rec.Code)
}

func TestDelay_PassesThrough(t *testing.T) {
	ts := newTokens(t)
	e := echo.New()
	e.GET("/x", ok, JWTAuth(ts), Delay(delay.Noop{}, nil))

	rec := do(e, bearer(t, ts, "CUST003", model.TierEnterprise))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type clockPolicy struct{ seen []time.Time }

func (p *clockPolicy) Wait(_ context.Context, _ model.Tier, now time.Time) error {
	p.seen = append(p.seen, now)
	return nil
}

func TestDelay_UsesInjectedClock(t *testing.T) {
	ts := newTokens(t)
	fixed := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	policy := &clockPolicy{}
	e := echo.New()
	e.GET("/x", ok, JWTAuth(ts), Delay(policy, func() time.Time { return fixed }))

	rec := do(e, bearer(t, ts, "CUST002", model.TierPremium))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []time.Time{fixed}, policy.seen)
}

func TestProcessingTime(t *testing.T) {
	e := echo.New()
	e.Use(ProcessingTime())
	e.GET("/x", ok)

	rec := do(e, "")
	require.Equal(t, http.StatusOK, rec.Code)
	v, err := strconv.ParseFloat(rec.Header().Get(HeaderProcessingTime), 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, 0.0)

	// error responses carry it too
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderProcessingTime))
}

type memSink struct {
	mu     sync.Mutex
	events []model.UsageEvent
}

func (s *memSink) Record(ev model.UsageEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return true
}

func TestUsageRecorder(t *testing.T) {
	ts := newTokens(t)
	sink := &memSink{}
	lim := ratelimit.NewMemoryLimiter(tier.Default(), 0)
	defer lim.Close()

	e := echo.New()
	e.GET("/x", ok, JWTAuth(ts), UsageRecorder(sink), RateLimitMiddleware(RateLimitConfig{Limiter: lim}))

	assert.Equal(t, http.StatusOK, do(e, bearer(t, ts, "CUST003", model.TierEnterprise)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "").Code)

	require.Len(t, sink.events, 1, "unauthenticated requests are not recorded")
	ev := sink.events[0]
	assert.Equal(t, "CUST003", ev.CustomerID)
	assert.Equal(t, "enterprise", ev.Tier)
	assert.Equal(t, "/x", ev.Path)
	assert.Equal(t, http.MethodGet, ev.Method)
	assert.EqualValues(t, http.StatusOK, ev.Status)
	assert.Len(t, ev.ID, 26)
}
