// Package templates holds the HTML components served by the web package.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/tariffdash/internal/charts"
	"github.com/JonMunkholm/tariffdash/internal/core"
)

// EntryRow is one line of the combined-data table.
type EntryRow struct {
	Country    string
	Deficit    string
	Alleged    string
	Response   string
	Population string // empty when absent
	Score      int
	Tier       charts.Tier
}

// DashboardData is everything the dashboard page shows.
type DashboardData struct {
	SnapshotID string
	CreatedAt  time.Time
	Summary    *charts.Summary
	Entries    []EntryRow
	Charts     []string
}

// NewDashboardData flattens a snapshot for display.
func NewDashboardData(snap *core.Snapshot) DashboardData {
	d := DashboardData{
		SnapshotID: snap.ID,
		CreatedAt:  snap.CreatedAt,
		Summary:    charts.Summarize(snap),
		Entries:    make([]EntryRow, len(snap.CombinedData)),
		Charts:     charts.Names(),
	}
	for i, e := range snap.CombinedData {
		row := EntryRow{
			Country:  e.Country(),
			Deficit:  e.Get(core.ColDeficit),
			Alleged:  e.Get(core.ColTariffAlleged),
			Response: e.Get(core.ColTariffResp),
			Score:    e.DigitalAccessScore,
			Tier:     charts.TierFor(e.DigitalAccessScore),
		}
		if e.Population != nil {
			row.Population = *e.Population
		}
		d.Entries[i] = row
	}
	return d
}

// Dashboard renders the full page.
func Dashboard(d DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.open("Tariff Impact Dashboard")

		p.raw(`<header><h1>Tariff Impact Dashboard</h1><p class="meta">Snapshot `)
		p.text(d.SnapshotID)
		p.raw(` &middot; loaded `)
		p.text(d.CreatedAt.Format(time.RFC1123))
		p.raw(`</p></header>`)

		if s := d.Summary; s != nil {
			p.raw(`<section class="summary"><h2>Summary</h2><dl>`)
			p.term("Countries", strconv.Itoa(s.Entries))
			p.term("With population", strconv.Itoa(s.WithPopulation))
			p.term("Poor digital access", strconv.Itoa(s.PoorAccess))
			p.term("Mean access score", formatNumber(s.MeanScore, 1))
			p.term("Score vs deficit (r)", formatNumber(s.ScoreDeficitCorrelation, 3))
			p.raw(`</dl></section>`)
		}

		p.raw(`<section class="charts"><h2>Chart data</h2><ul>`)
		for _, name := range d.Charts {
			p.raw(`<li><a href="/api/charts/`)
			p.text(name)
			p.raw(`">`)
			p.text(name)
			p.raw(`</a></li>`)
		}
		p.raw(`</ul></section>`)

		p.raw(`<section class="combined"><h2>Combined data</h2><table><thead><tr>`)
		for _, h := range []string{"Country", "US 2024 Deficit", "Alleged", "Response", "Population", "Access score"} {
			p.raw(`<th>`)
			p.text(h)
			p.raw(`</th>`)
		}
		p.raw(`</tr></thead><tbody>`)
		for _, e := range d.Entries {
			p.raw(`<tr class="tier-`)
			p.text(string(e.Tier))
			p.raw(`">`)
			p.cell(e.Country)
			p.cell(e.Deficit)
			p.cell(e.Alleged)
			p.cell(e.Response)
			if e.Population == "" {
				p.raw(`<td class="missing">n/a</td>`)
			} else {
				p.cell(e.Population)
			}
			p.cell(strconv.Itoa(e.Score))
			p.raw(`</tr>`)
		}
		p.raw(`</tbody></table></section>`)

		if s := d.Summary; s != nil && len(s.Trends) > 0 {
			p.raw(`<section class="trends"><h2>Historical tariff rates</h2><table><thead><tr><th>Country</th><th>Years</th><th>Mean rate (%)</th><th>Std dev</th></tr></thead><tbody>`)
			for _, tr := range s.Trends {
				p.raw(`<tr>`)
				p.raw(`<td><a href="/api/trends/`)
				p.text(url.PathEscape(tr.Country))
				p.raw(`">`)
				p.text(tr.Country)
				p.raw(`</a></td>`)
				p.cell(strconv.Itoa(tr.Years))
				p.cell(formatNumber(tr.Mean, 2))
				p.cell(formatNumber(tr.StdDev, 2))
				p.raw(`</tr>`)
			}
			p.raw(`</tbody></table></section>`)
		}

		p.close()
		return p.err
	})
}

// NotReady is shown until the first snapshot is published.
func NotReady(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.open("Loading")
		p.raw(`<section class="notice"><h1>`)
		p.text(msg.Message)
		p.raw(`</h1><p>`)
		p.text(msg.Action)
		p.raw(`</p><p class="code">Code: `)
		p.text(msg.Code)
		p.raw(`</p></section>`)
		p.close()
		return p.err
	})
}

// ErrorAlert renders an error message with its action and code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<div class="alert" role="alert"><strong>`)
		p.text(message)
		p.raw(`</strong>`)
		if action != "" {
			p.raw(`<p>`)
			p.text(action)
			p.raw(`</p>`)
		}
		p.raw(`<small>Code: `)
		p.text(code)
		p.raw(`</small></div>`)
		return p.err
	})
}

// page writes HTML and keeps the first write error.
type page struct {
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *page) cell(s string) {
	p.raw(`<td>`)
	p.text(s)
	p.raw(`</td>`)
}

func (p *page) term(label, value string) {
	p.raw(`<dt>`)
	p.text(label)
	p.raw(`</dt><dd>`)
	p.text(value)
	p.raw(`</dd>`)
}

func (p *page) open(title string) {
	p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
	p.text(title)
	p.raw(`</title><style>` + stylesheet + `</style></head><body>`)
}

func (p *page) close() {
	p.raw(`</body></html>`)
}

func formatNumber(n core.Number, prec int) string {
	if !n.Finite() {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, n.Float64())
}

const stylesheet = `body{font-family:system-ui,sans-serif;margin:2rem;color:#2c3e50}` +
	`table{border-collapse:collapse;width:100%;margin-bottom:2rem}` +
	`th,td{border-bottom:1px solid #ddd;padding:.4rem .6rem;text-align:left}` +
	`tr.tier-poor td:first-child{border-left:4px solid #e74c3c}` +
	`tr.tier-good td:first-child{border-left:4px solid #3498db}` +
	`dl{display:grid;grid-template-columns:max-content auto;gap:.25rem 1rem}` +
	`.meta,.code,.missing{color:#7f8c8d}.alert{border:1px solid #e74c3c;padding:1rem}`
