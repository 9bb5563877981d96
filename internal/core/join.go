package core

// JoinStats counts how many tariff rows found a population row.
type JoinStats struct {
	Entries int `json:"entries"`
	Matched int `json:"matched"`
	Missing int `json:"missing"`
}

// Join left-joins tariff rows with population rows on the Country field.
//
// Matching is exact string equality. When several population rows share a
// country the first one wins. A tariff row with no match gets a nil
// Population. Output order and length follow tariffRows; source rows are
// never modified.
func Join(tariffRows, populationRows []Row, scorer Scorer) []CombinedEntry {
	entries, _ := JoinWithStats(tariffRows, populationRows, scorer)
	return entries
}

// JoinWithStats is Join plus match counts.
func JoinWithStats(tariffRows, populationRows []Row, scorer Scorer) ([]CombinedEntry, JoinStats) {
	index := indexPopulation(populationRows)

	entries := make([]CombinedEntry, len(tariffRows))
	stats := JoinStats{Entries: len(tariffRows)}

	for i, t := range tariffRows {
		country := t[ColCountry]

		var pop *string
		if m, ok := index[country]; ok && m.ok {
			v := m.value
			pop = &v
			stats.Matched++
		} else {
			stats.Missing++
		}

		entries[i] = CombinedEntry{
			Fields:             t.clone(),
			Population:         pop,
			DigitalAccessScore: clampScore(scorer.Score(country)),
		}
	}

	return entries, stats
}

type populationMatch struct {
	value string
	ok    bool // false when the matched row has no Population column
}

// indexPopulation maps country to the Population value of its first row.
func indexPopulation(rows []Row) map[string]populationMatch {
	index := make(map[string]populationMatch, len(rows))
	for _, r := range rows {
		country := r[ColCountry]
		if _, seen := index[country]; seen {
			continue
		}
		v, ok := r[ColPopulation]
		index[country] = populationMatch{value: v, ok: ok}
	}
	return index
}
