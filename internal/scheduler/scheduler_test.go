package scheduler

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/streak-oracle/internal/datasource"
	"github.com/yourusername/streak-oracle/internal/service"
)

func writeFeed(t *testing.T, totals []int) string {
	t.Helper()
	records := make([]map[string]any, len(totals))
	for i, total := range totals {
		records[i] = map[string]any{"session": 100 + i, "total": total}
	}
	data, err := json.Marshal(map[string]any{"data": records})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

type fixture struct {
	scheduler *Scheduler
	ledger    *service.Ledger
}

func newFixture(t *testing.T, sources ...datasource.Source) fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	predictor, err := service.NewPredictionService(service.DefaultConfig(), nil, log)
	require.NoError(t, err)
	ledger := service.NewLedger(0, nil, log)
	return fixture{
		scheduler: NewScheduler(service.NewSequenceService(sources, log), predictor, ledger, log),
		ledger:    ledger,
	}
}

func TestRefreshSourceRecordsForecast(t *testing.T) {
	path := writeFeed(t, []int{14, 6, 13, 5, 12, 4, 16, 7, 11, 9, 15, 8})
	f := newFixture(t, datasource.NewFileSource("main", path, true))

	forecast, err := f.scheduler.RefreshSource(context.Background(), "main")
	require.NoError(t, err)
	require.NotNil(t, forecast)
	assert.Equal(t, int64(112), forecast.NextIndex)
	assert.Equal(t, 1, f.ledger.Len("main"))

	// a second refresh of the same snapshot replaces the open record
	_, err = f.scheduler.RefreshSource(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, 1, f.ledger.Len("main"))
}

func TestRefreshSourceSkipsEmptyFeed(t *testing.T) {
	path := writeFeed(t, nil)
	f := newFixture(t, datasource.NewFileSource("empty", path, true))

	forecast, err := f.scheduler.RefreshSource(context.Background(), "empty")
	require.NoError(t, err)
	assert.Nil(t, forecast)
	assert.Equal(t, 0, f.ledger.Len("empty"))
}

func TestWarmupCountsFailures(t *testing.T) {
	path := writeFeed(t, []int{14, 6, 13})
	f := newFixture(t,
		datasource.NewFileSource("main", path, true),
		datasource.NewFileSource("broken", filepath.Join(t.TempDir(), "missing.json"), true),
		datasource.NewFileSource("paused", path, false),
	)

	assert.Equal(t, 1, f.scheduler.Warmup(context.Background()))
	assert.Equal(t, 1, f.ledger.Len("main"))
	assert.Equal(t, 0, f.ledger.Len("paused"))
}

func TestScheduleAndLifecycle(t *testing.T) {
	path := writeFeed(t, []int{14, 6, 13})
	f := newFixture(t,
		datasource.NewFileSource("main", path, true),
		datasource.NewFileSource("paused", path, false),
	)
	s := f.scheduler

	assert.Error(t, s.Start(), "no jobs yet")
	assert.Error(t, s.ScheduleRefresh("not a cron", "main"))
	assert.ErrorIs(t, s.ScheduleRefresh("@every 1h", "nope"), service.ErrUnknownSource)

	require.NoError(t, s.ScheduleAll(""))
	require.Len(t, s.Entries(), 1)
	assert.True(t, s.GetNextRun().IsZero(), "not running")

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.GetNextRun().IsZero())
	assert.Error(t, s.Start())
	assert.Error(t, s.ScheduleRefresh("@every 1h", "main"))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop())
}
