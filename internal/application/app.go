// Package application wires configuration into the pipeline: which sources
// to read, how to score, and how the startup load is run.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/JonMunkholm/tariffdash/internal/config"
	"github.com/JonMunkholm/tariffdash/internal/core"
	"github.com/JonMunkholm/tariffdash/internal/logging"
)

// NewSources builds file or HTTP sources from cfg.
func NewSources(cfg config.SourceConfig) (core.Sources, error) {
	files := map[string]string{
		core.DatasetTariff:     cfg.TariffFile,
		core.DatasetPopulation: cfg.PopulationFile,
		core.DatasetHistorical: cfg.HistoricalFile,
	}

	var client *resty.Client
	if cfg.Remote() {
		client = core.NewHTTPClient(cfg.FetchTimeout)
	}

	build := func(key string) (core.Source, error) {
		file := files[key]
		if !cfg.Remote() {
			return core.NewFileSource(file, filepath.Join(cfg.Dir, file)).WithMaxSize(cfg.MaxSize), nil
		}
		u, err := url.JoinPath(cfg.BaseURL, file)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", key, err)
		}
		return core.NewHTTPSource(file, u, client).WithMaxSize(cfg.MaxSize), nil
	}

	var srcs core.Sources
	var err error
	if srcs.Tariff, err = build(core.DatasetTariff); err != nil {
		return core.Sources{}, err
	}
	if srcs.Population, err = build(core.DatasetPopulation); err != nil {
		return core.Sources{}, err
	}
	if srcs.Historical, err = build(core.DatasetHistorical); err != nil {
		return core.Sources{}, err
	}
	return srcs, nil
}

// NewScorer returns the scorer selected by cfg.Mode.
func NewScorer(cfg config.ScoringConfig) (core.Scorer, error) {
	switch strings.ToLower(cfg.Mode) {
	case "", config.ScoringHash:
		return core.HashScorer{}, nil

	case config.ScoringTable:
		data, err := os.ReadFile(cfg.TablePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrInvalidScoreTable, err)
		}
		return core.ParseScoreTable(string(data), cfg.Default)

	case config.ScoringRandom:
		seed := uint64(cfg.Seed)
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		return core.NewRandomScorer(seed), nil

	default:
		return nil, fmt.Errorf("unknown scoring mode %q", cfg.Mode)
	}
}

// NewPipeline builds the pipeline described by cfg.
func NewPipeline(cfg *config.Config, metrics *core.Metrics, logger *slog.Logger) (*core.Pipeline, error) {
	sources, err := NewSources(cfg.Sources)
	if err != nil {
		return nil, err
	}
	scorer, err := NewScorer(cfg.Scoring)
	if err != nil {
		return nil, err
	}
	return core.NewPipeline(core.Options{
		Sources:    sources,
		Scorer:     scorer,
		Concurrent: cfg.Sources.Concurrent,
		Metrics:    metrics,
		Logger:     logger,
	})
}

// Load runs the pipeline once, bounded by timeout, and publishes the result
// to store. A failed load is logged with its user-facing code and leaves the
// store empty; the error is returned for the caller to decide on.
func Load(ctx context.Context, p *core.Pipeline, store *core.SnapshotStore, timeout time.Duration) error {
	logger := logging.WithFields(ctx, "component", "pipeline")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	snap, err := p.Publish(ctx, store)
	if err != nil {
		msg := core.MapError(err)
		logger.Error("pipeline failed, no snapshot published",
			"error", err,
			"code", msg.Code,
			"action", msg.Action,
		)
		return err
	}

	logger.With("snapshot_id", snap.ID).Info("snapshot published",
		"combined", len(snap.CombinedData),
		"trend_countries", snap.HistoricalTrends.Len(),
	)
	return nil
}
