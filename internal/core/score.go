package core

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
)

// Score bounds for the digital access score.
const (
	MinScore = 0
	MaxScore = 100
)

// Scorer derives a digital access score for a country.
// Implementations must return a value in [MinScore, MaxScore]; Join clamps
// anything outside that range.
type Scorer interface {
	Score(country string) int
}

// ScoreFunc adapts a plain function to Scorer.
type ScoreFunc func(country string) int

// Score implements Scorer.
func (f ScoreFunc) Score(country string) int {
	return f(country)
}

// HashScorer is a deterministic scorer: a pure function of the country name.
// It carries no real-world meaning and exists so runs are reproducible when
// no scoring table is configured.
type HashScorer struct{}

// Score implements Scorer.
func (HashScorer) Score(country string) int {
	h := fnv.New32a()
	h.Write([]byte(country))
	return int(h.Sum32() % (MaxScore + 1))
}

// TableScorer looks scores up by exact country name.
type TableScorer struct {
	scores   map[string]int
	fallback int
}

// NewTableScorer builds a scorer from a map. Countries not in the map get
// fallback.
func NewTableScorer(scores map[string]int, fallback int) *TableScorer {
	cp := make(map[string]int, len(scores))
	for k, v := range scores {
		cp[k] = clampScore(v)
	}
	return &TableScorer{scores: cp, fallback: clampScore(fallback)}
}

// ParseScoreTable reads a "Country;Score" table with the dataset parser.
// The score column is the first header other than Country. The first row
// for a country wins, matching the join's duplicate handling.
func ParseScoreTable(text string, fallback int) (*TableScorer, error) {
	rows, stats := ParseWithStats(text)

	scoreCol := ""
	hasCountry := false
	for _, h := range stats.Header {
		if h == ColCountry {
			hasCountry = true
		} else if scoreCol == "" && h != "" {
			scoreCol = h
		}
	}
	if !hasCountry || scoreCol == "" {
		return nil, fmt.Errorf("score table: %w: need %q and a score column, got %v",
			ErrInvalidScoreTable, ColCountry, stats.Header)
	}

	scores := make(map[string]int, len(rows))
	for i, row := range rows {
		country := row[ColCountry]
		if _, seen := scores[country]; seen {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(row[scoreCol]))
		if err != nil {
			return nil, fmt.Errorf("score table row %d (%s): %w: %v", i+1, country, ErrInvalidScoreTable, err)
		}
		scores[country] = v
	}
	return NewTableScorer(scores, fallback), nil
}

// Score implements Scorer.
func (s *TableScorer) Score(country string) int {
	if v, ok := s.scores[country]; ok {
		return v
	}
	return s.fallback
}

// Len returns the number of countries in the table.
func (s *TableScorer) Len() int {
	return len(s.scores)
}

// RandomScorer returns a uniformly random score per call. This is the
// placeholder scoring the dashboard first shipped with; hosts opt into it explicitly.
type RandomScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomScorer returns a RandomScorer seeded with seed.
func NewRandomScorer(seed uint64) *RandomScorer {
	return &RandomScorer{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Score implements Scorer.
func (s *RandomScorer) Score(string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(MaxScore + 1)
}

func clampScore(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
