package core

// Aggregate groups historical rows by Partner Name into trend series.
//
// Points are appended in the order rows appear; nothing is sorted by year.
// Consumers that need chronological order must sort explicitly. Unparseable
// numbers become NaN and the point is kept.
func Aggregate(historicalRows []Row) *TrendsByCountry {
	trends := NewTrendsByCountry()

	for _, row := range historicalRows {
		trends.add(row[ColPartnerName], TrendPoint{
			Year:       ParseInt(row[ColYear]),
			Exports:    ParseFloat(row[ColExport]),
			Imports:    ParseFloat(row[ColImport]),
			TariffRate: ParseFloat(row[ColTariffRate]),
		})
	}

	return trends
}
