package core

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options configures a Pipeline.
type Options struct {
	Sources Sources

	// Scorer derives DigitalAccessScore. Defaults to HashScorer.
	Scorer Scorer

	// Concurrent fetches the three sources in parallel. When false they are
	// fetched one after another in the order tariff, population, historical.
	// Output is identical either way.
	Concurrent bool

	// Metrics defaults to an unregistered set.
	Metrics *Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Pipeline loads the three datasets and derives a Snapshot from them.
// A Pipeline holds no data between runs; every Run starts from a fresh State.
type Pipeline struct {
	sources    Sources
	scorer     Scorer
	concurrent bool
	metrics    *Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline validates opts and returns a Pipeline.
func NewPipeline(opts Options) (*Pipeline, error) {
	for _, ks := range opts.Sources.ordered() {
		if ks.src == nil {
			return nil, errors.New("pipeline: no source configured for " + ks.key)
		}
	}

	p := &Pipeline{
		sources:    opts.Sources,
		scorer:     opts.Scorer,
		concurrent: opts.Concurrent,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if p.scorer == nil {
		p.scorer = HashScorer{}
	}
	if p.metrics == nil {
		p.metrics = NewMetrics(nil)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// State holds the row sequences of one run. It is built by Load and only
// read afterwards.
type State struct {
	Tariff     []Row
	Population []Row
	Historical []Row
	Stats      map[string]ParseStats
}

// Load fetches and parses all three sources. If any source fails, Load
// returns the first error and no State.
func (p *Pipeline) Load(ctx context.Context) (*State, error) {
	sources := p.sources.ordered()
	texts := make([]string, len(sources))

	if p.concurrent {
		g, gctx := errgroup.WithContext(ctx)
		for i, ks := range sources {
			g.Go(func() error {
				text, err := p.fetch(gctx, ks)
				if err != nil {
					return err
				}
				texts[i] = text
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, ks := range sources {
			text, err := p.fetch(ctx, ks)
			if err != nil {
				return nil, err
			}
			texts[i] = text
		}
	}

	state := &State{Stats: make(map[string]ParseStats, len(sources))}
	for i, ks := range sources {
		rows, stats := ParseWithStats(texts[i])
		state.Stats[ks.key] = stats

		p.metrics.RowsParsed.WithLabelValues(ks.key).Add(float64(stats.Rows))
		p.metrics.RowsDropped.WithLabelValues(ks.key).Add(float64(stats.Dropped))
		p.logger.Debug("dataset parsed",
			"dataset", ks.key,
			"source", ks.src.Name(),
			"lines", stats.Lines,
			"rows", stats.Rows,
			"dropped", stats.Dropped,
		)
		warnMissingColumns(p.logger, ks.key, stats.Header)

		switch ks.key {
		case DatasetTariff:
			state.Tariff = rows
		case DatasetPopulation:
			state.Population = rows
		case DatasetHistorical:
			state.Historical = rows
		}
	}

	return state, nil
}

func (p *Pipeline) fetch(ctx context.Context, ks keyedSource) (string, error) {
	start := time.Now()
	text, err := ks.src.Fetch(ctx)
	p.metrics.FetchDuration.WithLabelValues(ks.key).Observe(time.Since(start).Seconds())
	if err != nil {
		var se *SourceError
		if !errors.As(err, &se) {
			err = sourceErr(ks.src.Name(), err)
		}
		return "", err
	}
	p.metrics.SourceBytes.WithLabelValues(ks.key).Set(float64(len(text)))
	return text, nil
}

// Process runs the join and the trend aggregation over a loaded State.
// It does not block and cannot fail.
func Process(state *State, scorer Scorer) ([]CombinedEntry, *TrendsByCountry, JoinStats) {
	combined, stats := JoinWithStats(state.Tariff, state.Population, scorer)
	trends := Aggregate(state.Historical)
	return combined, trends, stats
}

// Run loads all sources and derives a new Snapshot. On error no Snapshot is
// returned.
func (p *Pipeline) Run(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	state, err := p.Load(ctx)
	if err != nil {
		p.metrics.Runs.WithLabelValues("failed").Inc()
		return nil, err
	}

	combined, trends, joinStats := Process(state, p.scorer)

	snap := &Snapshot{
		ID:               uuid.NewString(),
		CreatedAt:        p.now().UTC(),
		CombinedData:     combined,
		HistoricalTrends: trends,
		Stats: RunStats{
			Sources:  state.Stats,
			Join:     joinStats,
			Duration: time.Since(start),
		},
	}

	p.metrics.Runs.WithLabelValues("succeeded").Inc()
	p.metrics.JoinMissing.Add(float64(joinStats.Missing))
	p.metrics.Countries.Set(float64(trends.Len()))

	p.logger.Info("pipeline run completed",
		"snapshot_id", snap.ID,
		"combined", len(combined),
		"population_missing", joinStats.Missing,
		"trend_countries", trends.Len(),
		"duration_ms", snap.Stats.Duration.Milliseconds(),
	)
	return snap, nil
}

// Publish runs the pipeline and publishes the result to store. If the run
// fails, store is left untouched.
func (p *Pipeline) Publish(ctx context.Context, store *SnapshotStore) (*Snapshot, error) {
	snap, err := p.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Publish(snap); err != nil {
		return nil, err
	}
	return snap, nil
}
