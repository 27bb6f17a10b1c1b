// Package domain models aviation-accident records from three heterogeneous
// upstream sources and the star-schema entities they reconcile into.
//
// # Data Sources
//
// Source 1: Aviation Safety Network (ASN). A scraper walks the wikibase
// occurrence pages and emits one JSON object per accident. Records are keyed
// by the numeric wikibase id at the end of the page URL. Dates use the site's
// long form ("Monday 9 December 2024"); casualty counts are embedded in free
// text ("Fatalities: 0 / Occupants: 2"); the location field is country-level.
//
// Source 2: NTSB CAROL. Monthly FileExport API downloads, merged into one JSON
// array of cases keyed by cm_ntsbNum (e.g. "WPR26LA036"). Event dates are ISO
// 8601 timestamps. Cases carry nested collections: vehicles, the occurrence
// event sequence, probable-cause findings, and crew entries. Geographic codes
// in this feed are upper-cased during normalization; the other sources are
// left as reported (see [GeoTextRules]).
//
// Source 3: historical CSV. A flat file of accidents since 1908, one row per
// accident, keyed by the row index. Dates use US slash format ("09/17/1908");
// Aboard/Fatalities/Ground are plain integer columns, frequently blank.
//
// # Normalization Conventions
//
// Dates normalize to a canonical YYYYMMDD integer. Unparseable dates map to
// the documented fallback 19000101 rather than failing the record; the
// tagged [DateResult] keeps "parsed" and "defaulted" distinguishable for
// quality logging.
//
// Counts are tri-state: nil (source does not report), zero (source reports
// zero), positive. An extracted literal zero is always "present, value zero".
//
// # Identity
//
// Dimension natural keys are (data_source, source_native_id) composites.
// Native ids come from a source-native identifier when one exists (wikibase
// id, cm_ntsbNum, registration mark, row index) and otherwise from a SHA-256
// content hash of the identifying fields ([ContentHash]). Hashes are
// deterministic and blank-safe: every null/blank operator name collapses to
// the same dimension row. One sentinel row per dimension carries the natural
// key (SYSTEM, UNKNOWN) and absorbs failed lookups, so fact foreign keys are
// never null and never dangling.
package domain
