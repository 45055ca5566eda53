package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func up() Check {
	return PingCheck(pingFunc(func(context.Context) error { return nil }), false)
}

func failing(optional bool) Check {
	return PingCheck(pingFunc(func(context.Context) error { return errors.New("unreachable") }), optional)
}

func TestRunAggregatesWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("postgres", up())
	assert.Equal(t, StatusUp, c.Run(context.Background()).Status)

	c.Register("redis", failing(true))
	report := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "unreachable", report.Components["redis"].Message)

	c.Register("postgres", failing(false))
	assert.Equal(t, StatusDown, c.Run(context.Background()).Status)
	assert.Equal(t, []string{"postgres", "redis"}, c.Names())
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("redis", failing(true))
	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	c.Register("postgres", failing(false))
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"down"`)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
