package core

import (
	"fmt"
	"log/slog"
)

// Column names the pipeline reads. Other columns pass through untouched.
const (
	ColCountry       = "Country"
	ColDeficit       = "US 2024 Deficit"
	ColTariffAlleged = "Trump Tariffs Alleged"
	ColTariffResp    = "Trump Response"
	ColPopulation    = "Population"
	ColPartnerName   = "Partner Name"
	ColYear          = "Year"
	ColExport        = "Export (US$ Thousand)"
	ColImport        = "Import (US$ Thousand)"
	ColTariffRate    = "AHS Simple Average (%)"

	// FieldDigitalAccessScore is the derived field added by the join.
	FieldDigitalAccessScore = "DigitalAccessScore"
)

// Dataset keys.
const (
	DatasetTariff     = "tariff"
	DatasetPopulation = "population"
	DatasetHistorical = "historical"
)

// DatasetDefinition describes one of the three input tables.
type DatasetDefinition struct {
	Key         string   `json:"key"`         // Unique identifier: "tariff"
	Label       string   `json:"label"`       // Display name
	DefaultFile string   `json:"defaultFile"` // File name the dashboard has always shipped with
	Columns     []string `json:"columns"`     // Columns the pipeline or its consumers read
}

// datasets is in load order.
var datasets = []DatasetDefinition{
	{
		Key:         DatasetTariff,
		Label:       "Tariff calculations",
		DefaultFile: "Tariff Calculations.csv",
		Columns:     []string{ColCountry, ColDeficit, ColTariffAlleged, ColTariffResp},
	},
	{
		Key:         DatasetPopulation,
		Label:       "Tariff calculations plus population",
		DefaultFile: "Tariff Calculations plus Population.csv",
		Columns:     []string{ColCountry, ColPopulation},
	},
	{
		Key:         DatasetHistorical,
		Label:       "34 years world export/import",
		DefaultFile: "34_years_world_export_import_dataset.csv",
		Columns:     []string{ColPartnerName, ColYear, ColExport, ColImport, ColTariffRate},
	},
}

// Datasets returns all dataset definitions in load order.
func Datasets() []DatasetDefinition {
	out := make([]DatasetDefinition, len(datasets))
	copy(out, datasets)
	return out
}

// LookupDataset returns a dataset definition by key.
// Returns false if not found.
func LookupDataset(key string) (DatasetDefinition, bool) {
	for _, d := range datasets {
		if d.Key == key {
			return d, true
		}
	}
	return DatasetDefinition{}, false
}

// MissingColumns returns the expected columns absent from header.
// The pipeline never rejects input on this basis; it is diagnostics only.
func (d DatasetDefinition) MissingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, c := range d.Columns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// warnMissingColumns logs expected columns a loaded dataset lacks.
func warnMissingColumns(logger *slog.Logger, key string, header []string) {
	def, ok := LookupDataset(key)
	if !ok {
		return
	}
	if missing := def.MissingColumns(header); len(missing) > 0 {
		logger.Warn("dataset missing expected columns",
			"dataset", key,
			"missing", fmt.Sprint(missing),
		)
	}
}
