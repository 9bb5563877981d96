package core

import (
	"bytes"
	"encoding/json"
	"time"
)

// Row is one parsed data record: trimmed header name to trimmed value.
// Values are never coerced at parse time.
type Row map[string]string

// clone returns a shallow copy so derived values never alias source rows.
func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CombinedEntry is a tariff row augmented with population and a derived
// digital access score.
type CombinedEntry struct {
	// Fields holds the tariff row's raw values, unchanged.
	Fields Row

	// Population is nil when no population row matched the country.
	Population *string

	// DigitalAccessScore is in [0, 100].
	DigitalAccessScore int
}

// Country returns the entry's country name.
func (e CombinedEntry) Country() string {
	return e.Fields[ColCountry]
}

// Get returns the raw value of a tariff field.
func (e CombinedEntry) Get(key string) string {
	return e.Fields[key]
}

// HasPopulation reports whether a population row matched.
func (e CombinedEntry) HasPopulation() bool {
	return e.Population != nil
}

// MarshalJSON flattens the tariff fields next to Population and
// DigitalAccessScore. An absent population encodes as null.
func (e CombinedEntry) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		m[k] = v
	}
	m[ColPopulation] = e.Population
	m[FieldDigitalAccessScore] = e.DigitalAccessScore
	return json.Marshal(m)
}

// TrendPoint is one year's export/import/tariff metrics for a country.
// Any field may be NaN when the source text did not parse.
type TrendPoint struct {
	Year       Number `json:"year"`
	Exports    Number `json:"exports"`
	Imports    Number `json:"imports"`
	TariffRate Number `json:"tariffRate"`
}

// TrendsByCountry maps a country to its trend points in the order rows were
// encountered. It also remembers the order in which countries first appeared.
type TrendsByCountry struct {
	order  []string
	series map[string][]TrendPoint
}

// NewTrendsByCountry returns an empty mapping.
func NewTrendsByCountry() *TrendsByCountry {
	return &TrendsByCountry{series: make(map[string][]TrendPoint)}
}

func (t *TrendsByCountry) add(country string, p TrendPoint) {
	if _, ok := t.series[country]; !ok {
		t.order = append(t.order, country)
	}
	t.series[country] = append(t.series[country], p)
}

// Len returns the number of countries.
func (t *TrendsByCountry) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Countries returns country names in first-encounter order.
func (t *TrendsByCountry) Countries() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Series returns a copy of the points for country.
func (t *TrendsByCountry) Series(country string) ([]TrendPoint, bool) {
	if t == nil {
		return nil, false
	}
	pts, ok := t.series[country]
	if !ok {
		return nil, false
	}
	out := make([]TrendPoint, len(pts))
	copy(out, pts)
	return out, true
}

// MarshalJSON encodes the mapping as an object whose keys follow
// first-encounter order.
func (t *TrendsByCountry) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, country := range t.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(country)
		if err != nil {
			return nil, err
		}
		pts, err := json.Marshal(t.series[country])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(pts)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Snapshot is the immutable result of one pipeline run.
type Snapshot struct {
	ID               string           `json:"id"`
	CreatedAt        time.Time        `json:"createdAt"`
	CombinedData     []CombinedEntry  `json:"combinedData"`
	HistoricalTrends *TrendsByCountry `json:"historicalTrends"`
	Stats            RunStats         `json:"stats"`
}

// RunStats holds diagnostics gathered during a run.
type RunStats struct {
	Sources  map[string]ParseStats `json:"sources"`
	Join     JoinStats             `json:"join"`
	Duration time.Duration         `json:"durationNs"`
}
