package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourusername/streak-oracle/internal/datasource"
	"github.com/yourusername/streak-oracle/internal/ensemble"
	"github.com/yourusername/streak-oracle/internal/models"
	"github.com/yourusername/streak-oracle/internal/service"
)

var errBadParam = errors.New("invalid parameter")

// LastEvent describes the newest event of the snapshot a forecast was made from
type LastEvent struct {
	Index int64        `json:"index"`
	Dice  []int        `json:"dice,omitempty"`
	Total *float64     `json:"total,omitempty"`
	Label models.Label `json:"label"`
}

// PredictResponse is the body of /predict and /premium
type PredictResponse struct {
	*service.Forecast
	Last     *LastEvent `json:"last,omitempty"`
	RecordID string     `json:"record_id,omitempty"`
}

// HistoryResponse is the body of /history
type HistoryResponse struct {
	Source   string                    `json:"source"`
	Records  []models.PredictionRecord `json:"records"`
	Weights  ensemble.Weights          `json:"weights"`
	Hits     int                       `json:"hits"`
	Settled  int                       `json:"settled"`
	Accuracy *float64                  `json:"accuracy"`
}

// ActualRequest is the body of POST /actual
type ActualRequest struct {
	Source string `json:"source"`
	Actual string `json:"actual"`
}

// ActualResponse acknowledges a settled prediction
type ActualResponse struct {
	OK     bool                    `json:"ok"`
	Record models.PredictionRecord `json:"record"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	s.forecast(w, r, 0)
}

func (s *Server) handlePremium(w http.ResponseWriter, r *http.Request) {
	minRecords, err := intParam(r, "min_records", s.cfg.PremiumMinRecords)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.forecast(w, r, minRecords)
}

// forecast loads the source, demands at least minRecords events, predicts and records the
// forecast in the ledger.
func (s *Server) forecast(w http.ResponseWriter, r *http.Request, minRecords int) {
	ctx := r.Context()
	source, events, err := s.load(ctx, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(events) < minRecords {
		s.writeError(w, fmt.Errorf("%w: need at least %d records, have %d", service.ErrInsufficientRecords, minRecords, len(events)))
		return
	}

	f, err := s.predictor.Predict(ctx, source, events)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := PredictResponse{Forecast: f}
	last := events[len(events)-1]
	resp.Last = &LastEvent{Index: last.Index, Dice: last.Dice, Total: last.MeasuredValue, Label: last.Label}

	rec, err := s.ledger.Record(ctx, f)
	if err != nil {
		// the forecast itself is still valid
		s.logger.WithError(err).WithField("source", source).Warn("Failed to record forecast")
	}
	if rec != nil {
		resp.RecordID = rec.ID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	window, err := intParam(r, "window", s.predictor.Config().Tuner.Window)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx := r.Context()
	source, events, err := s.load(ctx, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.predictor.Backtest(ctx, source, events, window)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	source, err := s.sequences.Resolve(r.URL.Query().Get("source"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := intParam(r, "limit", DefaultHistoryLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	weights, ok := s.ledger.Weights(source)
	if !ok {
		weights = s.currentWeights()
	}
	hits, settled := s.ledger.Accuracy(source)
	resp := HistoryResponse{
		Source:  source,
		Records: s.ledger.History(source, limit),
		Weights: weights,
		Hits:    hits,
		Settled: settled,
	}
	if settled > 0 {
		acc := float64(hits) / float64(settled)
		resp.Accuracy = &acc
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActual(w http.ResponseWriter, r *http.Request) {
	var req ActualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed body: %v", errBadParam, err))
		return
	}
	source, err := s.sequences.Resolve(req.Source)
	if err != nil {
		s.writeError(w, err)
		return
	}
	label, err := parseActual(req.Actual)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.ledger.RecordActual(r.Context(), source, label)
	if rec == nil {
		s.writeError(w, err)
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("source", source).Warn("Actual settled in memory only")
	}
	writeJSON(w, http.StatusOK, ActualResponse{OK: true, Record: *rec})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	var b strings.Builder
	b.WriteString("streak-oracle forecasting API\n\n")
	b.WriteString("GET  /api/v1/predict?source=\n")
	b.WriteString("GET  /api/v1/premium?source=&min_records=\n")
	b.WriteString("GET  /api/v1/backtest?source=&window=\n")
	b.WriteString("GET  /api/v1/history?source=&limit=\n")
	b.WriteString("POST /api/v1/actual {\"source\": \"\", \"actual\": \"A|B\"}\n")
	if s.cfg.MetricsEnabled {
		b.WriteString("GET  " + s.cfg.MetricsPath + "\n")
	}
	fmt.Fprintf(&b, "\nsources: %s\n", strings.Join(s.sequences.Sources(), ", "))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

// load resolves the source parameter and fetches its events. A source with no usable record
// is reported as invalid data.
func (s *Server) load(ctx context.Context, r *http.Request) (string, []models.Event, error) {
	source, err := s.sequences.Resolve(r.URL.Query().Get("source"))
	if err != nil {
		return "", nil, err
	}
	events, err := s.sequences.Load(ctx, source)
	if err != nil {
		return "", nil, err
	}
	if len(events) == 0 {
		return "", nil, datasource.NewDataSourceError(source, datasource.ErrCodeInvalidData, "no usable records", datasource.ErrInvalidData)
	}
	return source, events, nil
}

// currentWeights is what /history reports before any forecast of the source was recorded.
func (s *Server) currentWeights() ensemble.Weights {
	if fixed := s.predictor.Config().FixedWeights; fixed != nil {
		return *fixed
	}
	return ensemble.Default()
}

// parseActual accepts A/B, big/small and the Tài/Xỉu spellings upstream feeds use.
func parseActual(raw string) (models.Label, error) {
	if label, err := models.ParseLabel(raw); err == nil {
		return label, nil
	}
	if label, ok := datasource.ParseResultLabel(raw); ok {
		return label, nil
	}
	return "", fmt.Errorf("%w: actual must be A or B, got %q", errBadParam, raw)
}

// intParam reads a positive integer query parameter, returning def when it is absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", errBadParam, name)
	}
	return v, nil
}

func statusFor(err error) int {
	var dsErr datasource.DataSourceError
	switch {
	case errors.Is(err, errBadParam), errors.Is(err, service.ErrInsufficientRecords), errors.Is(err, models.ErrUnresolvedLabel):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnknownSource):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoOpenPrediction):
		return http.StatusConflict
	case errors.As(err, &dsErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
