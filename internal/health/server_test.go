package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error {
	return p.err
}

func newServer(db DatabasePinger) *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewServer(Config{ServiceName: "streak-oracle", Version: "test", Logger: log, DB: db})
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, ReadyResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestNewServerDefaults(t *testing.T) {
	s := NewServer(Config{})
	assert.Equal(t, DefaultPort, s.port)
	assert.False(t, s.IsReady())
	assert.NoError(t, s.Shutdown(), "shutdown before start is a no-op")
}

func TestHealthAndLive(t *testing.T) {
	s := newServer(nil)
	for _, path := range []string{"/health", "/live"} {
		rec, body := get(t, s, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "streak-oracle", body.Service)
	}
}

func TestReadyTracksFlagAndChecks(t *testing.T) {
	s := newServer(fakePinger{})

	rec, body := get(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body.Checks["service"])
	assert.Equal(t, "ok", body.Checks["database"])

	s.SetReady(true)
	rec, body = get(t, s, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body.Status)

	s.AddCheck("source:main", func(context.Context) error { return errors.New("circuit open") })
	rec, body = get(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "error: circuit open", body.Checks["source:main"])
}

func TestReadyReportsDatabaseFailure(t *testing.T) {
	s := newServer(fakePinger{err: errors.New("connection refused")})
	s.SetReady(true)

	rec, body := get(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "error: connection refused", body.Checks["database"])
}
