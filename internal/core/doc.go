// Package core provides the normalization logic for tabular dump files.
//
// This package is the heart of dumpmerge, containing all heuristics
// independent of any file format, UI or transport layer. It can be used by
// the CLI, the HTTP handlers, or tests without modification.
//
// # Architecture
//
// The package is organized around four steps, applied once per source:
//
//   - Sniffing: [DetectDelimiter] infers the field separator of delimited
//     text from a bounded sample, falling back to a comma.
//   - Key columns: [ResolveKeyColumns] picks the identity column (or a
//     first/last name pair) from the header row.
//   - Key extraction: [Extractor] derives each row's identity key, preferring
//     any cell that looks like an email address.
//   - Aggregation: [Aggregator] merges every other value of the row into an
//     insertion-ordered, de-duplicated [Mapping].
//
// # Sources
//
// Formats are registered at init time using [RegisterFormat]. Each
// [FormatDefinition] opens a [Source], which yields an optional header and
// a finite stream of [Record] values:
//
//	core.RegisterFormat(FormatDefinition{
//	    Key:        "csv",
//	    Label:      "Delimited text",
//	    Extensions: []string{".csv", ".tsv"},
//	    Open:       openDelimited,
//	})
//
// No logic in this package branches on the concrete format.
//
// # Runs
//
// [Service] is the entry point used by the CLI and the HTTP server. It opens
// a location with [OpenSource], runs [NormalizeSharded] under a
// [RunLimiter] slot and keeps a short history of [RunSummary] values.
// Encoding the mapping and storing it is left to the caller.
//
// # Diagnostics
//
// Skipped rows, delimiter fallbacks and entry counts are reported through an
// injected [Reporter] rather than printed. [LogReporter] writes them to a
// slog.Logger; [DiscardReporter] silences them.
//
// # Error Handling
//
// Per-row problems never abort a run. Only failures to open or read the
// source are fatal. Technical errors are mapped to user-friendly messages
// with [MapError]:
//
//   - FILE001-FILE005: File errors (size, encoding, unsupported format)
//   - SRC001-SRC003: Structured source errors (no table, no sheet)
//   - RUN001-RUN003: Run errors (busy, cancelled, timeout)
package core
