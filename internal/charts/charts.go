// Package charts turns a published snapshot into the series each dashboard
// chart is drawn from. Tariff fields stay raw strings in the snapshot; this
// is where they get a numeric reading.
package charts

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/JonMunkholm/tariffdash/internal/core"
)

// Chart names served by Build.
const (
	TariffImpact          = "tariff-impact"
	DeficitInfrastructure = "deficit-infrastructure"
	HistoricalTrends      = "historical-trends"
	GDPImpact             = "gdp-impact"
	TopAffected           = "top-affected"
)

const (
	// PoorAccessBelow is the score under which a country counts as poorly connected.
	PoorAccessBelow = 50

	// TrendCountries is how many countries the historical chart shows.
	TrendCountries = 5

	// TopAffectedCount is how many countries the top-affected chart shows.
	TopAffectedCount = 10
)

// Tier classifies a digital access score.
type Tier string

const (
	TierPoor Tier = "poor"
	TierGood Tier = "good"
)

// TierFor returns TierPoor for scores below PoorAccessBelow.
func TierFor(score int) Tier {
	if score < PoorAccessBelow {
		return TierPoor
	}
	return TierGood
}

// Trace is one plotted series. Categorical charts fill Labels, numeric ones
// fill X. Y always has one value per point.
type Trace struct {
	Name   string        `json:"name,omitempty"`
	Kind   string        `json:"type"`
	Mode   string        `json:"mode,omitempty"`
	Labels []string      `json:"labels,omitempty"`
	X      []core.Number `json:"x,omitempty"`
	Y      []core.Number `json:"y"`
	Text   []string      `json:"text,omitempty"`
	Size   []core.Number `json:"size,omitempty"`
	Tiers  []Tier        `json:"tiers,omitempty"`
}

// Chart is everything a renderer needs for one chart.
type Chart struct {
	Name   string  `json:"name"`
	Title  string  `json:"title"`
	XTitle string  `json:"xTitle"`
	YTitle string  `json:"yTitle"`
	Traces []Trace `json:"traces"`
}

type builder func(*core.Snapshot) *Chart

var builders = map[string]builder{
	TariffImpact:          BuildTariffImpact,
	DeficitInfrastructure: BuildDeficitInfrastructure,
	HistoricalTrends:      BuildHistoricalTrends,
	GDPImpact:             BuildGDPImpact,
	TopAffected:           BuildTopAffected,
}

// Names lists the chart names in dashboard order.
func Names() []string {
	return []string{TariffImpact, DeficitInfrastructure, HistoricalTrends, GDPImpact, TopAffected}
}

// Build returns the named chart, or core.ErrUnknownChart.
func Build(name string, snap *core.Snapshot) (*Chart, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownChart, name)
	}
	return b(snap), nil
}

// BuildAll returns every chart in Names order.
func BuildAll(snap *core.Snapshot) []*Chart {
	names := Names()
	out := make([]*Chart, 0, len(names))
	for _, name := range names {
		out = append(out, builders[name](snap))
	}
	return out
}

// ParseDeficit reads a deficit such as "-295,401.6". Thousands separators are
// removed before the prefix parse.
func ParseDeficit(s string) core.Number {
	return core.ParseFloat(strings.ReplaceAll(s, ",", ""))
}

// ParsePercent reads a rate such as "34%". Only the first '%' is removed.
func ParsePercent(s string) core.Number {
	return core.ParseFloat(strings.Replace(s, "%", "", 1))
}

// MarkerSize scales a population to a marker size. An absent or empty
// population counts as zero; an unreadable one yields NaN.
func MarkerSize(population *string) core.Number {
	if population == nil || *population == "" {
		return 0
	}
	return core.Number(math.Sqrt(core.ParseFloat(*population).Float64() / 1e6))
}

// PerCapita divides a deficit by a population. The result is NaN when the
// population is absent, unreadable or zero.
func PerCapita(deficit core.Number, population *string) core.Number {
	if population == nil {
		return core.NaN()
	}
	pop := core.ParseFloat(*population)
	if pop.IsNaN() || pop == 0 {
		return core.NaN()
	}
	return deficit / pop
}

// BuildTariffImpact plots deficit per country, tiered by access score.
func BuildTariffImpact(snap *core.Snapshot) *Chart {
	data := snap.CombinedData
	tr := Trace{
		Kind:   "bar",
		Labels: make([]string, len(data)),
		Y:      make([]core.Number, len(data)),
		Text:   make([]string, len(data)),
		Tiers:  make([]Tier, len(data)),
	}
	for i, e := range data {
		tr.Labels[i] = e.Country()
		tr.Y[i] = ParseDeficit(e.Get(core.ColDeficit))
		tr.Text[i] = fmt.Sprintf("Digital Access Score: %d", e.DigitalAccessScore)
		tr.Tiers[i] = TierFor(e.DigitalAccessScore)
	}

	return &Chart{
		Name:   TariffImpact,
		Title:  "US Trade Deficit by Country (2024)",
		XTitle: "Country",
		YTitle: "Trade Deficit (Millions USD)",
		Traces: []Trace{tr},
	}
}

// BuildDeficitInfrastructure plots deficit against access score, sized by
// population.
func BuildDeficitInfrastructure(snap *core.Snapshot) *Chart {
	data := snap.CombinedData
	tr := Trace{
		Kind: "scatter",
		Mode: "markers",
		X:    make([]core.Number, len(data)),
		Y:    make([]core.Number, len(data)),
		Text: make([]string, len(data)),
		Size: make([]core.Number, len(data)),
	}
	for i, e := range data {
		tr.X[i] = core.Number(e.DigitalAccessScore)
		tr.Y[i] = ParseDeficit(e.Get(core.ColDeficit))
		tr.Text[i] = e.Country()
		tr.Size[i] = MarkerSize(e.Population)
	}

	return &Chart{
		Name:   DeficitInfrastructure,
		Title:  "Trade Deficit vs. Digital Infrastructure Access",
		XTitle: "Digital Infrastructure Access Score",
		YTitle: "Trade Deficit (Millions USD)",
		Traces: []Trace{tr},
	}
}

// BuildHistoricalTrends plots tariff rate by year for the first
// TrendCountries countries in encounter order.
func BuildHistoricalTrends(snap *core.Snapshot) *Chart {
	c := &Chart{
		Name:   HistoricalTrends,
		Title:  "Historical Tariff Rates by Country",
		XTitle: "Year",
		YTitle: "Average Tariff Rate (%)",
		Traces: []Trace{},
	}
	if snap.HistoricalTrends == nil {
		return c
	}

	countries := snap.HistoricalTrends.Countries()
	if len(countries) > TrendCountries {
		countries = countries[:TrendCountries]
	}
	for _, country := range countries {
		points, _ := snap.HistoricalTrends.Series(country)
		tr := Trace{
			Name: country,
			Kind: "scatter",
			Mode: "lines+markers",
			X:    make([]core.Number, len(points)),
			Y:    make([]core.Number, len(points)),
		}
		for i, p := range points {
			tr.X[i] = p.Year
			tr.Y[i] = p.TariffRate
		}
		c.Traces = append(c.Traces, tr)
	}
	return c
}

// BuildGDPImpact plots the deficit per head of population, split into a
// good-access and a poor-access trace. Each trace keeps combined order.
func BuildGDPImpact(snap *core.Snapshot) *Chart {
	good := Trace{Name: "Good Digital Access", Kind: "bar", Labels: []string{}, Y: []core.Number{}}
	poor := Trace{Name: "Poor Digital Access", Kind: "bar", Labels: []string{}, Y: []core.Number{}}

	for _, e := range snap.CombinedData {
		tr := &good
		if TierFor(e.DigitalAccessScore) == TierPoor {
			tr = &poor
		}
		tr.Labels = append(tr.Labels, e.Country())
		tr.Y = append(tr.Y, PerCapita(ParseDeficit(e.Get(core.ColDeficit)), e.Population))
	}

	return &Chart{
		Name:   GDPImpact,
		Title:  "Tariff Impact on GDP per Capita",
		XTitle: "Country",
		YTitle: "GDP Impact per Capita (USD)",
		Traces: []Trace{good, poor},
	}
}

// BuildTopAffected plots alleged and response tariffs for the
// TopAffectedCount countries with the most negative deficit. The snapshot is
// not reordered. Unreadable deficits sort last.
func BuildTopAffected(snap *core.Snapshot) *Chart {
	type ranked struct {
		entry   core.CombinedEntry
		deficit core.Number
	}
	data := make([]ranked, len(snap.CombinedData))
	for i, e := range snap.CombinedData {
		data[i] = ranked{entry: e, deficit: ParseDeficit(e.Get(core.ColDeficit))}
	}
	slices.SortStableFunc(data, func(a, b ranked) int {
		an, bn := a.deficit.IsNaN(), b.deficit.IsNaN()
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
		return cmp.Compare(a.deficit.Float64(), b.deficit.Float64())
	})
	if len(data) > TopAffectedCount {
		data = data[:TopAffectedCount]
	}

	alleged := Trace{Name: "Alleged Tariffs", Kind: "bar"}
	response := Trace{Name: "Response Tariffs", Kind: "bar"}
	for _, r := range data {
		alleged.Labels = append(alleged.Labels, r.entry.Country())
		alleged.Y = append(alleged.Y, ParsePercent(r.entry.Get(core.ColTariffAlleged)))
		response.Labels = append(response.Labels, r.entry.Country())
		response.Y = append(response.Y, ParsePercent(r.entry.Get(core.ColTariffResp)))
	}
	if alleged.Y == nil {
		alleged.Y, response.Y = []core.Number{}, []core.Number{}
	}

	return &Chart{
		Name:   TopAffected,
		Title:  "Top 10 Most Affected Countries by Tariffs",
		XTitle: "Country",
		YTitle: "Tariff Rate (%)",
		Traces: []Trace{alleged, response},
	}
}
