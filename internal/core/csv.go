package core

import "strings"

// Delimiter separates fields in every dataset. Quoting is not supported.
const Delimiter = ";"

// ParseStats describes what Parse did with its input.
type ParseStats struct {
	Header  []string `json:"header"`
	Lines   int      `json:"lines"`   // data lines seen (excludes header)
	Rows    int      `json:"rows"`    // rows emitted
	Dropped int      `json:"dropped"` // lines whose field count disagreed with the header
}

// Parse turns semicolon-delimited text into rows. The first line is the
// header. A data line whose field count differs from the header's is dropped
// without error; this is also how a trailing blank line goes away.
func Parse(text string) []Row {
	rows, _ := ParseWithStats(text)
	return rows
}

// ParseWithStats is Parse plus counts for diagnostics.
func ParseWithStats(text string) ([]Row, ParseStats) {
	lines := strings.Split(text, "\n")

	rawHeader := strings.Split(lines[0], Delimiter)
	header := make([]string, len(rawHeader))
	for i, h := range rawHeader {
		header[i] = strings.TrimSpace(h)
	}

	stats := ParseStats{Header: header, Lines: len(lines) - 1}
	rows := make([]Row, 0, len(lines)-1)

	for _, line := range lines[1:] {
		values := strings.Split(line, Delimiter)
		if len(values) != len(header) {
			stats.Dropped++
			continue
		}

		row := make(Row, len(header))
		for i, h := range header {
			row[h] = strings.TrimSpace(values[i])
		}
		rows = append(rows, row)
	}

	stats.Rows = len(rows)
	return rows, stats
}
