package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tariffCSV = "Country;US 2024 Deficit;Trump Tariffs Alleged;Trump Response\n" +
		"A;-1,000.5;10%;5%\n" +
		"B;-20;20%;10%\n"
	populationCSV = "Country;Population\n" +
		"A;100\n"
	historicalCSV = "Partner Name;Year;Export (US$ Thousand);Import (US$ Thousand);AHS Simple Average (%)\n" +
		"A;2010;1;2;3\n" +
		"A;2011;4;5;6\n"
)

func wellFormedSources() Sources {
	return Sources{
		Tariff:     StaticSource{SourceName: DatasetTariff, Text: tariffCSV},
		Population: StaticSource{SourceName: DatasetPopulation, Text: populationCSV},
		Historical: StaticSource{SourceName: DatasetHistorical, Text: historicalCSV},
	}
}

func newTestPipeline(t *testing.T, sources Sources, concurrent bool) *Pipeline {
	t.Helper()
	p, err := NewPipeline(Options{
		Sources:    sources,
		Scorer:     fixedScore(60),
		Concurrent: concurrent,
		Now:        func() time.Time { return time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return p
}

func TestPipeline_Run_EndToEnd(t *testing.T) {
	for _, concurrent := range []bool{false, true} {
		t.Run(map[bool]string{false: "sequential", true: "concurrent"}[concurrent], func(t *testing.T) {
			snap, err := newTestPipeline(t, wellFormedSources(), concurrent).Run(context.Background())
			require.NoError(t, err)

			require.Len(t, snap.CombinedData, 2)
			a, b := snap.CombinedData[0], snap.CombinedData[1]
			assert.Equal(t, "A", a.Country())
			require.NotNil(t, a.Population)
			assert.Equal(t, "100", *a.Population)
			assert.Equal(t, "B", b.Country())
			assert.Nil(t, b.Population)
			assert.Equal(t, "-1,000.5", a.Get(ColDeficit), "raw text preserved")
			assert.Equal(t, 60, a.DigitalAccessScore)

			assert.Equal(t, []string{"A"}, snap.HistoricalTrends.Countries())
			pts, ok := snap.HistoricalTrends.Series("A")
			require.True(t, ok)
			assert.Len(t, pts, 2)

			assert.NotEmpty(t, snap.ID)
			assert.Equal(t, time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), snap.CreatedAt)
			assert.Equal(t, 1, snap.Stats.Join.Matched)
			assert.Equal(t, 1, snap.Stats.Join.Missing)
			assert.Equal(t, 2, snap.Stats.Sources[DatasetTariff].Rows)
		})
	}
}

func TestPipeline_Publish_AbortsOnSourceFailure(t *testing.T) {
	for _, concurrent := range []bool{false, true} {
		sources := wellFormedSources()
		sources.Historical = StaticSource{SourceName: DatasetHistorical, Err: errors.New("connection refused")}

		store := NewSnapshotStore()
		snap, err := newTestPipeline(t, sources, concurrent).Publish(context.Background(), store)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSourceUnavailable)
		assert.Nil(t, snap)
		assert.False(t, store.Ready())
		_, err = store.Load()
		assert.ErrorIs(t, err, ErrSnapshotNotReady)
	}
}

func TestPipeline_Publish_FailureLeavesPriorSnapshot(t *testing.T) {
	store := NewSnapshotStore()
	first, err := newTestPipeline(t, wellFormedSources(), true).Publish(context.Background(), store)
	require.NoError(t, err)

	sources := wellFormedSources()
	sources.Tariff = StaticSource{SourceName: DatasetTariff, Err: errors.New("gone")}
	_, err = newTestPipeline(t, sources, true).Publish(context.Background(), store)
	require.Error(t, err)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Same(t, first, got)
}

type recordingSource struct {
	name string
	text string
	mu   *sync.Mutex
	log  *[]string
}

func (s recordingSource) Name() string { return s.name }

func (s recordingSource) Fetch(ctx context.Context) (string, error) {
	s.mu.Lock()
	*s.log = append(*s.log, s.name)
	s.mu.Unlock()
	return s.text, nil
}

func TestPipeline_SequentialFetchOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	src := func(name, text string) Source {
		return recordingSource{name: name, text: text, mu: &mu, log: &order}
	}

	p := newTestPipeline(t, Sources{
		Tariff:     src(DatasetTariff, tariffCSV),
		Population: src(DatasetPopulation, populationCSV),
		Historical: src(DatasetHistorical, historicalCSV),
	}, false)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{DatasetTariff, DatasetPopulation, DatasetHistorical}, order)
}

func TestPipeline_SequentialStopsAtFirstFailure(t *testing.T) {
	var mu sync.Mutex
	var order []string

	p := newTestPipeline(t, Sources{
		Tariff:     StaticSource{SourceName: DatasetTariff, Err: errors.New("down")},
		Population: recordingSource{name: DatasetPopulation, text: populationCSV, mu: &mu, log: &order},
		Historical: recordingSource{name: DatasetHistorical, text: historicalCSV, mu: &mu, log: &order},
	}, false)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, order)
}

func TestPipeline_ConcurrentMatchesSequential(t *testing.T) {
	seq, err := newTestPipeline(t, wellFormedSources(), false).Run(context.Background())
	require.NoError(t, err)
	con, err := newTestPipeline(t, wellFormedSources(), true).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, seq.CombinedData, con.CombinedData)
	assert.Equal(t, seq.HistoricalTrends, con.HistoricalTrends)
}

func TestPipeline_RunsAreIndependent(t *testing.T) {
	p := newTestPipeline(t, wellFormedSources(), true)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	first.CombinedData[0].Fields[ColCountry] = "mutated"
	assert.Equal(t, "A", second.CombinedData[0].Country())
}

func TestPipeline_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	sources := wellFormedSources()
	sources.Tariff = StaticSource{SourceName: DatasetTariff, Text: tariffCSV + "bad;line\n"}

	p, err := NewPipeline(Options{Sources: sources, Metrics: metrics})
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	// "bad;line" and the trailing blank line.
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RowsDropped.WithLabelValues(DatasetTariff)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RowsParsed.WithLabelValues(DatasetTariff)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.JoinMissing))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Countries))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Runs.WithLabelValues("succeeded")))
}

func TestNewPipeline_RequiresAllSources(t *testing.T) {
	sources := wellFormedSources()
	sources.Population = nil

	_, err := NewPipeline(Options{Sources: sources})
	require.Error(t, err)
	assert.Contains(t, err.Error(), DatasetPopulation)
}

func TestProcess(t *testing.T) {
	state := &State{
		Tariff:     Parse(tariffCSV),
		Population: Parse(populationCSV),
		Historical: Parse(historicalCSV),
	}

	combined, trends, stats := Process(state, HashScorer{})

	assert.Len(t, combined, 2)
	assert.Equal(t, 1, trends.Len())
	assert.Equal(t, JoinStats{Entries: 2, Matched: 1, Missing: 1}, stats)
}
