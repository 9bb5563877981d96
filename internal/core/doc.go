// Package core provides the data pipeline behind the tariff dashboard.
//
// This package holds all domain logic independent of any transport layer.
// It can be used by the web server, tests, or a one-off tool without
// modification.
//
// # Pipeline
//
// A run moves through four stages:
//
//  1. Load: each [Source] returns raw semicolon-delimited text for one of the
//     three datasets (tariff, population, historical).
//  2. Parse: [Parse] turns text into [Row] values, dropping lines whose field
//     count disagrees with the header.
//  3. Derive: [Join] left-joins tariff rows with population rows by country
//     and attaches a digital access score from a [Scorer]; [Aggregate]
//     groups historical rows into per-country [TrendPoint] series.
//  4. Publish: the result is wrapped in an immutable [Snapshot] and handed to
//     a [SnapshotStore], which accepts exactly one publish.
//
// If any source fails to load, the run aborts before stage 3 and nothing is
// published.
//
// # Numbers
//
// Numeric interpretation is deferred. Tariff and population fields stay raw
// strings (consumers depend on their exact text, e.g. thousands separators).
// Historical metrics are parsed during aggregation with lenient prefix
// semantics; failures become NaN and are kept, not dropped. [Number]
// encodes NaN as JSON null.
//
// # Error Handling
//
// Source failures are wrapped in [SourceError] and match
// [ErrSourceUnavailable] via errors.Is. Technical errors are mapped to
// user-facing messages with [MapError]:
//
//   - SRC001-SRC002: Source errors (unavailable, timeout)
//   - SNAP001-SNAP002: Snapshot errors (not ready, already published)
//   - CHART001, TRD001: Lookup errors (unknown chart, unknown country)
//   - RATE001: Rate limiting
package core
