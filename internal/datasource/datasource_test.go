package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/streak-oracle/internal/config"
	"github.com/yourusername/streak-oracle/internal/models"
)

func decode(t *testing.T, payload string) []RawRecord {
	t.Helper()
	records, err := DecodeRecords(strings.NewReader(payload))
	require.NoError(t, err)
	return records
}

func testClient(maxErrors int) *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	cfg.Burst = 10
	cfg.CircuitBreakerMax = maxErrors
	cfg.CircuitCooldown = time.Minute
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewRateLimitedHTTPClient(cfg, logger)
}

func TestNormalizeAliasesAndOrdering(t *testing.T) {
	records := decode(t, `[
		{"session": 12, "total": 15, "result": "Tài", "dice": [5, 5, 5]},
		{"phien": "10", "tong": "6", "ket_qua": "Xỉu"},
		{"id": 11, "sum": 11},
		{"s": 13, "t": 9, "res": "big"},
		{"index": 14, "total_points": 3, "outcome": "SMALL"},
		{"session": 15, "result": "12"},
		{"session": 16, "total": 8, "kq": "x"}
	]`)

	events := Normalize(records)
	require.Len(t, events, 7)

	var indices []int64
	var labels string
	for _, e := range events {
		indices = append(indices, e.Index)
		labels += string(e.Label)
	}
	assert.Equal(t, []int64{10, 11, 12, 13, 14, 15, 16}, indices)
	assert.Equal(t, "BAAABAB", labels)

	assert.Equal(t, []int{5, 5, 5}, events[2].Dice)
	require.NotNil(t, events[5].MeasuredValue)
	assert.Equal(t, 12.0, *events[5].MeasuredValue, "numeric result doubles as the total")
	assert.NoError(t, models.ValidateSequence(events))
}

func TestNormalizeDropsUnusableRecords(t *testing.T) {
	records := decode(t, `[
		{"total": 12, "result": "Tài"},
		{"session": 1, "result": "Tài"},
		{"session": 2, "total": 12, "result": "maybe"},
		{"session": 3.5, "total": 12},
		{"session": 4, "total": null, "tong": 5}
	]`)

	events := Normalize(records)
	require.Len(t, events, 1)
	assert.Equal(t, int64(4), events[0].Index)
	assert.Equal(t, models.LabelB, events[0].Label)
}

func TestNormalizeDuplicateKeepsLast(t *testing.T) {
	records := decode(t, `[
		{"session": 1, "total": 4},
		{"session": 2, "total": 14},
		{"session": 1, "total": 16}
	]`)

	events := Normalize(records)
	require.Len(t, events, 2)
	assert.Equal(t, models.LabelA, events[0].Label)
	assert.Equal(t, 16.0, *events[0].MeasuredValue)
}

func TestParseResultLabel(t *testing.T) {
	tests := []struct {
		in   string
		want models.Label
		ok   bool
	}{
		{"Tài", models.LabelA, true},
		{"tai", models.LabelA, true},
		{"T", models.LabelA, true},
		{"BIG", models.LabelA, true},
		{"Xỉu", models.LabelB, true},
		{"xiu", models.LabelB, true},
		{" x ", models.LabelB, true},
		{"small", models.LabelB, true},
		{"draw", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseResultLabel(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThresholdBoundary(t *testing.T) {
	records := decode(t, `[{"session": 1, "total": 10.5}, {"session": 2, "total": "10.51"}]`)
	events := Normalize(records)
	require.Len(t, events, 2)
	assert.Equal(t, models.LabelB, events[0].Label)
	assert.Equal(t, models.LabelA, events[1].Label)
}

func TestDecodeRecordsEnvelopes(t *testing.T) {
	assert.Len(t, decode(t, `[{"session": 1}]`), 1)
	assert.Len(t, decode(t, `{"data": [{"session": 1}, {"session": 2}]}`), 2)
	assert.Len(t, decode(t, `{"history": []}`), 0)

	for _, bad := range []string{``, `{"items": []}`, `not json`, `[1, 2]`} {
		_, err := DecodeRecords(strings.NewReader(bad))
		assert.ErrorIs(t, err, ErrInvalidData, "payload %q", bad)
	}
}

func TestHTTPSourceFetch(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [{"session": 1, "total": 12}, {"session": 2, "total": 5}]}`))
	}))
	defer srv.Close()

	src := NewHTTPSource("primary", srv.URL, "tok", true, testClient(3), nil)
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "primary", src.Name())
	assert.True(t, src.IsEnabled())
}

func TestHTTPSourceStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		code   string
		target error
	}{
		{http.StatusUnauthorized, ErrCodeAuthenticationFailed, ErrAuthenticationFailed},
		{http.StatusNotFound, ErrCodeNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrCodeRateLimitExceeded, ErrRateLimitExceeded},
		{http.StatusBadGateway, ErrCodeServerError, ErrServerError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := NewHTTPSource("primary", srv.URL, "", true, testClient(10), nil).Fetch(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.code, ErrorCode(err))
			assert.True(t, errors.Is(err, tt.target))
		})
	}
}

func TestHTTPSourceMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rows": []}`))
	}))
	defer srv.Close()

	_, err := NewHTTPSource("primary", srv.URL, "", true, testClient(3), nil).Fetch(context.Background())
	assert.Equal(t, ErrCodeInvalidData, ErrorCode(err))
}

func TestCircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := testClient(2)
	src := NewHTTPSource("primary", srv.URL, "", true, client, nil)
	for i := 0; i < 2; i++ {
		_, err := src.Fetch(context.Background())
		assert.Equal(t, ErrCodeServerError, ErrorCode(err))
	}
	assert.True(t, client.IsOpen())

	_, err := src.Fetch(context.Background())
	assert.Equal(t, ErrCodeCircuitOpen, ErrorCode(err))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCircuitBreakerAdmitsSingleTrial(t *testing.T) {
	client := testClient(1)
	client.recordFailure(errors.New("upstream status 503"))
	require.True(t, client.IsOpen())
	assert.ErrorIs(t, client.allow(), ErrCircuitOpen)

	backdate := func() {
		client.mu.Lock()
		client.openedAt = time.Now().Add(-2 * time.Minute)
		client.mu.Unlock()
	}

	backdate()
	require.NoError(t, client.allow(), "trial after cooldown")
	assert.ErrorIs(t, client.allow(), ErrCircuitOpen, "second caller during the trial")
	assert.True(t, client.IsOpen())

	client.recordFailure(errors.New("upstream status 503"))
	assert.True(t, client.IsOpen())
	assert.ErrorIs(t, client.allow(), ErrCircuitOpen, "failed trial restarts the cooldown")

	backdate()
	require.NoError(t, client.allow())
	client.recordSuccess()
	assert.False(t, client.IsOpen())
	for i := 0; i < 3; i++ {
		assert.NoError(t, client.allow())
	}
}

func TestFileSource(t *testing.T) {
	src := NewFileSource("archive", "testdata/history.json", true)
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)

	events := Normalize(records)
	require.Len(t, events, 3)
	assert.Equal(t, int64(2001), events[0].Index)
	assert.Equal(t, models.LabelA, events[1].Label)
	assert.Equal(t, []int{5, 5, 4}, events[2].Dice)

	_, err = NewFileSource("missing", "testdata/nope.json", true).Fetch(context.Background())
	assert.Equal(t, ErrCodeNotFound, ErrorCode(err))
}

func TestFactory(t *testing.T) {
	cfg := &config.Config{Sources: []config.SourceConfig{
		{Name: "primary", Type: "http", URL: "https://feed.example.com/api", Enabled: false},
		{Name: "archive", Type: "file", Path: "testdata/history.json", Enabled: true},
	}}
	f := NewFactory(cfg, nil)

	sources, err := f.NewSources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "archive", sources[0].Name())
	assert.Equal(t, []string{"archive"}, f.ListAvailableSources())

	_, err = f.NewSource(config.SourceConfig{Name: "ftp", Type: "ftp"})
	assert.Error(t, err)

	cfg.Sources[1].Enabled = false
	_, err = f.NewSources()
	assert.Error(t, err)
}

func TestHTTPClientConfigFor(t *testing.T) {
	cfg := HTTPClientConfigFor(config.SourceConfig{TimeoutSeconds: 3, RetryAttempts: 1, RateLimitPerSecond: 5, Burst: 7})
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, 7, cfg.Burst)
}
