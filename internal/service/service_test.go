package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/streak-oracle/internal/config"
	"github.com/yourusername/streak-oracle/internal/datasource"
	"github.com/yourusername/streak-oracle/internal/ensemble"
	"github.com/yourusername/streak-oracle/internal/expert"
	"github.com/yourusername/streak-oracle/internal/models"
)

const mixed = "AABABBBAABAAABBABABBBAABABAAABBBABAABBABAAABABBBAABAB"

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func buildEvents(labels string) []models.Event {
	out := make([]models.Event, len(labels))
	for i, c := range labels {
		l := models.LabelB
		total := 6.0 + float64(i%4)
		if c == 'A' {
			l = models.LabelA
			total = 12.0 + float64(i%6)
		}
		out[i] = models.Event{Index: int64(500 + i), Label: l, MeasuredValue: models.Float64Ptr(total), Dice: []int{1, 2, 3}}
	}
	return out
}

func bareEvents(labels string) []models.Event {
	out := make([]models.Event, len(labels))
	for i, c := range labels {
		l := models.LabelB
		if c == 'A' {
			l = models.LabelA
		}
		out[i] = models.Event{Index: int64(i + 1), Label: l}
	}
	return out
}

func newService(t *testing.T, cfg Config, cache *WeightCache) *PredictionService {
	t.Helper()
	svc, err := NewPredictionService(cfg, cache, quietLogger())
	require.NoError(t, err)
	return svc
}

func fixed(t *testing.T, m map[string]float64) Config {
	t.Helper()
	w, err := ensemble.FromMap(m)
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.FixedWeights = &w
	return cfg
}

func TestPredictEmptySequence(t *testing.T) {
	svc := newService(t, DefaultConfig(), nil)

	f, err := svc.Predict(context.Background(), "primary", nil)
	require.NoError(t, err)
	assert.True(t, f.Diagnostics.InsufficientData)
	assert.Equal(t, 0.5, f.ProbabilityA)
	assert.True(t, f.Label.Valid())
	assert.Nil(t, f.Accuracy)
	assert.Equal(t, 0.0, f.Confidence)
	assert.Equal(t, models.RegimeUnknown, f.Regime)
	assert.Equal(t, WeightsFallback, f.Diagnostics.WeightSource)
}

func TestPredictShortSequenceUsesFrequency(t *testing.T) {
	svc := newService(t, DefaultConfig(), nil)

	f, err := svc.Predict(context.Background(), "primary", buildEvents("AAB"))
	require.NoError(t, err)
	assert.True(t, f.Diagnostics.InsufficientData)
	assert.InDelta(t, 2.0/3.0, f.ProbabilityA, 1e-12)
	assert.Equal(t, models.LabelA, f.Label)
	assert.Equal(t, int64(502), f.LastIndex)
	assert.Equal(t, int64(503), f.NextIndex)
}

func TestPredictNeutralAtFloorUsesMajority(t *testing.T) {
	svc := newService(t, fixed(t, map[string]float64{"totalHeuristic": 1}), nil)

	for labels, want := range map[string]models.Label{
		"AAAAABBB": models.LabelA,
		"BBBBBAAA": models.LabelB,
		"ABABABAB": models.LabelA,
	} {
		f, err := svc.Predict(context.Background(), "primary", bareEvents(labels))
		require.NoError(t, err)
		assert.False(t, f.Diagnostics.InsufficientData)
		assert.Equal(t, 0.5, f.ProbabilityA, labels)
		assert.True(t, f.Diagnostics.NeutralTieBreak, labels)
		assert.True(t, f.Diagnostics.Abstain, labels)
		assert.Equal(t, want, f.Label, labels)
		assert.Equal(t, 0, f.Trials)
	}
}

func TestPredictAtFloorWithDefaults(t *testing.T) {
	svc := newService(t, DefaultConfig(), nil)

	f, err := svc.Predict(context.Background(), "primary", buildEvents("ABBABAAB"))
	require.NoError(t, err)
	assert.False(t, f.Diagnostics.InsufficientData)
	assert.True(t, f.Label.Valid())
	assert.Equal(t, WeightsDefault, f.Diagnostics.WeightSource)
	assert.Len(t, f.ExpertBreakdown, expert.Count)
}

func TestPredictAlternatingBreaksToB(t *testing.T) {
	svc := newService(t, DefaultConfig(), nil)
	events := buildEvents(strings.Repeat("BA", 20))

	f, err := svc.Predict(context.Background(), "primary", events)
	require.NoError(t, err)
	assert.Equal(t, models.RegimeAlternating, f.Regime)
	assert.Equal(t, 0.0, f.ExpertBreakdown["markov1"])
	assert.Equal(t, models.LabelB, f.Label)
	assert.Less(t, f.ProbabilityA, 0.5)
	assert.Equal(t, WeightsTuned, f.Diagnostics.WeightSource)
	require.NotNil(t, f.Accuracy)
	assert.Greater(t, *f.Accuracy, 0.9)
	assert.NotEmpty(t, f.Rationales["runBias"])
}

func TestPredictRunBiasDominantBreaksStreak(t *testing.T) {
	cfg, err := config.LoadWithDefaults("testdata/missing.yaml")
	require.NoError(t, err)
	cfg.Engine.FixedWeights = map[string]float64{"runbias": 1}

	svcCfg, err := ConfigFromApp(cfg)
	require.NoError(t, err)
	svc := newService(t, svcCfg, nil)

	f, err := svc.Predict(context.Background(), "primary", buildEvents(strings.Repeat("A", 10)))
	require.NoError(t, err)
	assert.InDelta(t, 0.22, f.ExpertBreakdown["runBias"], 1e-12)
	assert.InDelta(t, 0.22, f.ProbabilityA, 1e-12)
	assert.Equal(t, models.LabelB, f.Label)
	assert.Equal(t, WeightsFixed, f.Diagnostics.WeightSource)
}

func TestPredictDoesNotMutateInput(t *testing.T) {
	svc := newService(t, DefaultConfig(), nil)
	events := buildEvents(mixed)
	snapshot := models.CloneEvents(events)

	_, err := svc.Predict(context.Background(), "primary", events)
	require.NoError(t, err)
	assert.Equal(t, snapshot, events)
}

func TestPredictUsesWeightCache(t *testing.T) {
	cache := NewWeightCache(time.Minute, time.Minute)
	svc := newService(t, DefaultConfig(), cache)
	events := buildEvents(mixed)

	first, err := svc.Predict(context.Background(), "primary", events)
	require.NoError(t, err)
	second, err := svc.Predict(context.Background(), "primary", events)
	require.NoError(t, err)

	assert.Equal(t, WeightsTuned, first.Diagnostics.WeightSource)
	assert.Equal(t, WeightsCached, second.Diagnostics.WeightSource)
	assert.Equal(t, first.TunedWeights, second.TunedWeights)
	assert.Equal(t, first.ProbabilityA, second.ProbabilityA)

	hits, misses, ratio := cache.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 0.5, ratio)

	_, err = svc.Predict(context.Background(), "primary", events[:len(events)-1])
	require.NoError(t, err)
	assert.Equal(t, 2, cache.ItemCount())

	cache.Invalidate("primary")
	assert.Equal(t, 0, cache.ItemCount())

	_, err = svc.Predict(context.Background(), "secondary", events)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.ItemCount())
	cache.Clear()
	assert.Equal(t, 0, cache.ItemCount())
	hits, misses, _ = cache.Stats()
	assert.Zero(t, hits+misses)
}

func TestPredictCancelled(t *testing.T) {
	svc := newService(t, DefaultConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Predict(ctx, "primary", buildEvents(mixed))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestServiceBacktest(t *testing.T) {
	svc := newService(t, DefaultConfig(), nil)
	events := buildEvents(mixed)

	res, err := svc.Backtest(context.Background(), "primary", events, 30)
	require.NoError(t, err)
	assert.Equal(t, 21, res.Trials)
	require.NotNil(t, res.Accuracy)
	assert.LessOrEqual(t, len(res.Sample), 20)

	again, err := svc.Backtest(context.Background(), "primary", events, 30)
	require.NoError(t, err)
	assert.Equal(t, *res.Accuracy, *again.Accuracy)

	empty, err := svc.Backtest(context.Background(), "primary", buildEvents("ABAB"), 30)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Trials)
	assert.Nil(t, empty.Accuracy)
}

func TestConfidenceAndRisk(t *testing.T) {
	assert.Equal(t, 50.0, Confidence(0.75))
	assert.Equal(t, 60.0, Confidence(0.2))
	assert.Equal(t, 0.0, Confidence(0.5))
	assert.Equal(t, 12.35, Confidence(0.56175))

	assert.Equal(t, RiskHigh, Risk(0.5))
	assert.Equal(t, RiskMedium, Risk(0.8))
	assert.Equal(t, RiskLow, Risk(0.95))
	assert.Equal(t, RiskLow, Risk(0.001))
}

func TestConfigFromApp(t *testing.T) {
	cfg, err := config.LoadWithDefaults("testdata/missing.yaml")
	require.NoError(t, err)
	cfg.Engine.MaxCandidates = 50
	cfg.Engine.Workers = 2

	svcCfg, err := ConfigFromApp(cfg)
	require.NoError(t, err)
	assert.Equal(t, 8, svcCfg.Floor)
	assert.Equal(t, 200, svcCfg.Backtest.Window)
	assert.Equal(t, 250, svcCfg.Tuner.Window)
	assert.Equal(t, 50, svcCfg.Tuner.Grid.MaxCandidates)
	assert.Equal(t, 2, svcCfg.Tuner.Workers)
	assert.Nil(t, svcCfg.FixedWeights)

	cfg.Engine.FixedWeights = map[string]float64{"oracle": 1}
	_, err = ConfigFromApp(cfg)
	assert.ErrorIs(t, err, expert.ErrUnknownExpert)
}

type fakeRepo struct {
	created []*models.PredictionRecord
	updated map[uuid.UUID]models.Label
}

func (r *fakeRepo) Create(_ context.Context, rec *models.PredictionRecord) error {
	r.created = append(r.created, rec)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*models.PredictionRecord, error) {
	return nil, models.ErrNotFound
}

func (r *fakeRepo) GetRecent(_ context.Context, _ string, limit int) ([]*models.PredictionRecord, error) {
	var out []*models.PredictionRecord
	for i := len(r.created) - 1; i >= 0 && len(out) < limit; i-- {
		c := *r.created[i]
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeRepo) UpdatePrediction(_ context.Context, id uuid.UUID, predicted models.Label, probabilityA, confidence float64) error {
	for _, rec := range r.created {
		if rec.ID == id && !rec.Settled() {
			rec.Predicted = predicted
			rec.ProbabilityA = probabilityA
			rec.Confidence = confidence
			return nil
		}
	}
	return models.ErrNotFound
}

func (r *fakeRepo) UpdateActual(_ context.Context, id uuid.UUID, actual models.Label) error {
	if r.updated == nil {
		r.updated = make(map[uuid.UUID]models.Label)
	}
	r.updated[id] = actual
	return nil
}

func (r *fakeRepo) GetAccuracy(_ context.Context, _ string) (int, int, error) {
	return 0, 0, nil
}

func forecastAt(last int64, label models.Label) *Forecast {
	return &Forecast{
		Source:       "primary",
		ProbabilityA: 0.7,
		Label:        label,
		Confidence:   40,
		LastIndex:    last,
		NextIndex:    last + 1,
		Diagnostics:  Diagnostics{Events: 20},
	}
}

func TestLedgerRotationAndHistory(t *testing.T) {
	repo := &fakeRepo{}
	ledger := NewLedger(3, repo, quietLogger())
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		_, err := ledger.Record(ctx, forecastAt(i, models.LabelA))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, ledger.Len("primary"))
	assert.Len(t, repo.created, 5)

	history := ledger.History("primary", 2)
	require.Len(t, history, 2)
	assert.Equal(t, int64(6), history[0].Index)
	assert.Equal(t, int64(5), history[1].Index)
	assert.Len(t, ledger.History("primary", 0), 3)
	assert.Empty(t, ledger.History("other", 5))
}

func TestLedgerRestore(t *testing.T) {
	repo := &fakeRepo{}
	ctx := context.Background()
	first := NewLedger(3, repo, quietLogger())
	for i := int64(1); i <= 5; i++ {
		_, err := first.Record(ctx, forecastAt(i, models.LabelA))
		require.NoError(t, err)
	}

	restored := NewLedger(3, repo, quietLogger())
	n, err := restored.Restore(ctx, "primary")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	history := restored.History("primary", 0)
	require.Len(t, history, 3)
	assert.Equal(t, int64(6), history[0].Index)
	assert.Equal(t, int64(4), history[2].Index)

	rec, err := restored.RecordActual(ctx, "primary", models.LabelA)
	require.NoError(t, err)
	assert.Equal(t, int64(6), rec.Index)

	n, err = NewLedger(3, nil, quietLogger()).Restore(ctx, "primary")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLedgerReforecastReplacesOpenRecord(t *testing.T) {
	ledger := NewLedger(10, nil, quietLogger())
	ctx := context.Background()

	_, err := ledger.Record(ctx, forecastAt(7, models.LabelA))
	require.NoError(t, err)
	rec, err := ledger.Record(ctx, forecastAt(7, models.LabelB))
	require.NoError(t, err)

	assert.Equal(t, 1, ledger.Len("primary"))
	assert.Equal(t, models.LabelB, rec.Predicted)

	_, err = ledger.Record(ctx, &Forecast{Source: "primary"})
	assert.Error(t, err)
}

func TestLedgerReforecastSurvivesRestore(t *testing.T) {
	repo := &fakeRepo{}
	ctx := context.Background()
	ledger := NewLedger(10, repo, quietLogger())

	_, err := ledger.Record(ctx, forecastAt(7, models.LabelA))
	require.NoError(t, err)
	replaced := forecastAt(7, models.LabelB)
	replaced.ProbabilityA = 0.3
	_, err = ledger.Record(ctx, replaced)
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	restored := NewLedger(10, repo, quietLogger())
	n, err := restored.Restore(ctx, "primary")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	history := restored.History("primary", 0)
	require.Len(t, history, 1)
	assert.Equal(t, int64(8), history[0].Index)
	assert.Equal(t, models.LabelB, history[0].Predicted)
	assert.Equal(t, 0.3, history[0].ProbabilityA)
}

func TestLedgerRecordActual(t *testing.T) {
	repo := &fakeRepo{}
	ledger := NewLedger(10, repo, quietLogger())
	ctx := context.Background()

	_, err := ledger.RecordActual(ctx, "primary", models.LabelA)
	assert.ErrorIs(t, err, ErrNoOpenPrediction)

	_, err = ledger.Record(ctx, forecastAt(1, models.LabelA))
	require.NoError(t, err)
	_, err = ledger.Record(ctx, forecastAt(2, models.LabelB))
	require.NoError(t, err)

	rec, err := ledger.RecordActual(ctx, "primary", models.LabelA)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.Index)
	assert.False(t, rec.Hit())
	assert.Equal(t, models.LabelA, repo.updated[rec.ID])

	rec, err = ledger.RecordActual(ctx, "primary", models.LabelA)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Index)
	assert.True(t, rec.Hit())

	hits, settled := ledger.Accuracy("primary")
	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, settled)

	_, err = ledger.RecordActual(ctx, "primary", models.Label("C"))
	assert.ErrorIs(t, err, models.ErrUnresolvedLabel)
}

type failingSource struct{}

func (failingSource) Fetch(context.Context) ([]datasource.RawRecord, error) {
	return nil, datasource.NewDataSourceError("broken", datasource.ErrCodeServerError, "status 503", datasource.ErrServerError)
}
func (failingSource) Name() string    { return "broken" }
func (failingSource) IsEnabled() bool { return true }

func TestSequenceService(t *testing.T) {
	svc := NewSequenceService([]datasource.Source{
		datasource.NewFileSource("archive", "../datasource/testdata/history.json", true),
		failingSource{},
		datasource.NewFileSource("disabled", "../datasource/testdata/history.json", false),
	}, quietLogger())

	assert.Equal(t, []string{"archive", "broken", "disabled"}, svc.Sources())
	assert.Equal(t, "archive", svc.Default())

	events, err := svc.Load(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, int64(2001), events[0].Index)

	_, err = svc.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownSource)
	_, err = svc.Load(context.Background(), "disabled")
	assert.ErrorIs(t, err, ErrUnknownSource)

	_, err = svc.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.Equal(t, datasource.ErrCodeServerError, datasource.ErrorCode(err))
	assert.True(t, errors.Is(err, datasource.ErrServerError))
}
