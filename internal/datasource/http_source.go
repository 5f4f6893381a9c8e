package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// HTTPSource fetches a JSON history from an upstream endpoint
type HTTPSource struct {
	name     string
	url      string
	apiToken string
	enabled  bool
	client   *RateLimitedHTTPClient
	logger   *logrus.Entry
}

// NewHTTPSource creates an HTTP-backed source
func NewHTTPSource(name, url, apiToken string, enabled bool, client *RateLimitedHTTPClient, logger *logrus.Logger) *HTTPSource {
	if logger == nil {
		logger = logrus.New()
	}
	return &HTTPSource{
		name:     name,
		url:      url,
		apiToken: apiToken,
		enabled:  enabled,
		client:   client,
		logger:   logger.WithFields(logrus.Fields{"component": "datasource", "source": name}),
	}
}

// Name returns the name of the data source
func (s *HTTPSource) Name() string {
	return s.name
}

// IsEnabled returns whether this data source is currently enabled
func (s *HTTPSource) IsEnabled() bool {
	return s.enabled
}

// Fetch retrieves the upstream history
func (s *HTTPSource) Fetch(ctx context.Context) ([]RawRecord, error) {
	header := http.Header{"Accept": []string{"application/json"}}
	if s.apiToken != "" {
		header.Set("Authorization", "Bearer "+s.apiToken)
	}

	resp, err := s.client.Get(ctx, s.url, header)
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, NewDataSourceError(s.name, ErrCodeCircuitOpen, "source temporarily disabled", err)
		}
		return nil, NewDataSourceError(s.name, ErrCodeNetworkError, "request failed", fmt.Errorf("%w: %v", ErrNetworkError, err))
	}
	defer resp.Body.Close()

	if err := statusError(s.name, resp.StatusCode); err != nil {
		return nil, err
	}

	records, err := DecodeRecords(resp.Body)
	if err != nil {
		return nil, NewDataSourceError(s.name, ErrCodeInvalidData, "malformed payload", err)
	}
	s.logger.WithField("records", len(records)).Debug("Fetched history")
	return records, nil
}

// statusError maps non-success HTTP statuses to data source errors
func statusError(source string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewDataSourceError(source, ErrCodeAuthenticationFailed, fmt.Sprintf("status %d", status), ErrAuthenticationFailed)
	case status == http.StatusNotFound:
		return NewDataSourceError(source, ErrCodeNotFound, fmt.Sprintf("status %d", status), ErrNotFound)
	case status == http.StatusTooManyRequests:
		return NewDataSourceError(source, ErrCodeRateLimitExceeded, fmt.Sprintf("status %d", status), ErrRateLimitExceeded)
	case status >= 500:
		return NewDataSourceError(source, ErrCodeServerError, fmt.Sprintf("status %d", status), ErrServerError)
	default:
		return NewDataSourceError(source, ErrCodeUnknown, fmt.Sprintf("unexpected status %d", status), nil)
	}
}
