package charts

import (
	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/tariffdash/internal/core"
)

// CountryTariff summarises one country's historical tariff rate.
type CountryTariff struct {
	Country string      `json:"country"`
	Years   int         `json:"years"` // finite tariff observations
	Mean    core.Number `json:"meanTariffRate"`
	StdDev  core.Number `json:"stdDevTariffRate"`
}

// Summary holds headline statistics for a snapshot. Statistics that cannot
// be computed are NaN and encode as null.
type Summary struct {
	SnapshotID     string `json:"snapshotId"`
	Entries        int    `json:"entries"`
	WithPopulation int    `json:"withPopulation"`
	PoorAccess     int    `json:"poorAccess"`

	MeanScore core.Number `json:"meanScore"`

	// ScoreDeficitCorrelation is Pearson's r over entries whose deficit parses.
	ScoreDeficitCorrelation core.Number `json:"scoreDeficitCorrelation"`

	Trends []CountryTariff `json:"trends"`
}

// Summarize computes a Summary. Trends keep encounter order.
func Summarize(snap *core.Snapshot) *Summary {
	s := &Summary{
		SnapshotID: snap.ID,
		Entries:    len(snap.CombinedData),
		MeanScore:  core.NaN(),
		Trends:     []CountryTariff{},
	}

	scores := make([]float64, 0, len(snap.CombinedData))
	var xs, ys []float64
	for _, e := range snap.CombinedData {
		if e.HasPopulation() {
			s.WithPopulation++
		}
		if TierFor(e.DigitalAccessScore) == TierPoor {
			s.PoorAccess++
		}

		score := float64(e.DigitalAccessScore)
		scores = append(scores, score)
		if d := ParseDeficit(e.Get(core.ColDeficit)); d.Finite() {
			xs = append(xs, score)
			ys = append(ys, d.Float64())
		}
	}

	if len(scores) > 0 {
		s.MeanScore = core.Number(stat.Mean(scores, nil))
	}
	s.ScoreDeficitCorrelation = correlation(xs, ys)

	if snap.HistoricalTrends != nil {
		for _, country := range snap.HistoricalTrends.Countries() {
			points, _ := snap.HistoricalTrends.Series(country)
			s.Trends = append(s.Trends, summarizeSeries(country, points))
		}
	}
	return s
}

func summarizeSeries(country string, points []core.TrendPoint) CountryTariff {
	rates := make([]float64, 0, len(points))
	for _, p := range points {
		if p.TariffRate.Finite() {
			rates = append(rates, p.TariffRate.Float64())
		}
	}

	ct := CountryTariff{
		Country: country,
		Years:   len(rates),
		Mean:    core.NaN(),
		StdDev:  core.NaN(),
	}
	if len(rates) > 0 {
		ct.Mean = core.Number(stat.Mean(rates, nil))
	}
	if len(rates) > 1 {
		ct.StdDev = core.Number(stat.StdDev(rates, nil))
	}
	return ct
}

// correlation is NaN below two pairs. Constant input also gives NaN.
func correlation(xs, ys []float64) core.Number {
	if len(xs) < 2 {
		return core.NaN()
	}
	return core.Number(stat.Correlation(xs, ys, nil))
}
