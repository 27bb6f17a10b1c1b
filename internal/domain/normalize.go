package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FallbackDate is the canonical YYYYMMDD value substituted when a source date
// cannot be parsed. Records carrying it are queryable but flagged, and every
// fallback emits a quality event upstream.
const FallbackDate = 19000101

var (
	// clockRe pulls the first HH:MM token out of a free-text time field,
	// tolerating prefixes like "ca. 14:30" and suffixes like "14:30 LT".
	clockRe = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
)

// DateResult is the outcome of date normalization. Parsed distinguishes a
// successfully parsed date from the documented fallback, so callers can
// quality-log defaults instead of losing that information.
type DateResult struct {
	YYYYMMDD int
	Date     time.Time
	Parsed   bool
}

// fallbackDateResult is returned for every unparseable input.
func fallbackDateResult() DateResult {
	return DateResult{
		YYYYMMDD: FallbackDate,
		Date:     time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC),
		Parsed:   false,
	}
}

// ParseSourceDate normalizes a raw date string using the fixed format of the
// given source: ASN long form ("Monday 9 December 2024"), NTSB ISO 8601
// timestamps, CSV US slash dates ("09/17/1908"). It is total: malformed input
// yields the fallback result, never an error.
func ParseSourceDate(source Source, raw string) DateResult {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallbackDateResult()
	}

	var t time.Time
	var err error
	switch source {
	case SourceASN:
		// The leading weekday is dropped rather than validated; ASN pages
		// occasionally disagree with the calendar.
		t, err = time.Parse("2 January 2006", stripWeekday(raw))
	case SourceNTSB:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			t, err = time.Parse(layout, raw)
			if err == nil {
				break
			}
		}
	case SourceCSV:
		t, err = time.Parse("01/02/2006", raw)
	default:
		return fallbackDateResult()
	}
	if err != nil {
		return fallbackDateResult()
	}

	return DateResult{
		YYYYMMDD: t.Year()*10000 + int(t.Month())*100 + t.Day(),
		Date:     time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		Parsed:   true,
	}
}

// stripWeekday removes a leading English weekday name, with or without a
// trailing comma, from an ASN long-form date.
func stripWeekday(s string) string {
	first, rest, found := strings.Cut(s, " ")
	if !found {
		return s
	}
	switch strings.ToLower(strings.TrimSuffix(first, ",")) {
	case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday":
		return strings.TrimSpace(rest)
	}
	return s
}

// ParseClock extracts an hour and minute from a free-text time field.
// Returns ok=false for blank or malformed values; a fact simply carries no
// time key in that case.
func ParseClock(raw string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, 0, false
	}
	hour, errH := strconv.Atoi(m[1])
	minute, errM := strconv.Atoi(m[2])
	if errH != nil || errM != nil || hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// ExtractLabeledCount pulls the first integer following a labeled token out
// of free text, e.g. ExtractLabeledCount("Fatalities: 0 / Occupants: 2",
// "Occupants") = (2, true). A matched zero is "present, value zero"; callers
// must not conflate it with absent. Returns ok=false when the label is
// missing or carries no number.
func ExtractLabeledCount(text, label string) (int, bool) {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `\s*:\s*(\d+)`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseOptionalCount parses a plain integer field, returning nil for blank or
// malformed values so "unreported" survives as NULL rather than a fabricated
// zero.
func ParseOptionalCount(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

// TextRule is a normalization function applied to a text field before it is
// stored on a dimension.
type TextRule func(string) string

// TrimOnly collapses surrounding whitespace and nothing else.
func TrimOnly(s string) string { return strings.TrimSpace(s) }

// TrimUpper trims and upper-cases, used for geographic codes.
func TrimUpper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// GeoTextRules maps each source to the rule applied to its geographic fields
// (country, state, city). Only the NTSB feed upper-cases; the sources are
// deliberately not forced into one casing convention, and keeping the
// asymmetry in a table makes it auditable instead of hiding it in control
// flow.
var GeoTextRules = map[Source]TextRule{
	SourceASN:  TrimOnly,
	SourceNTSB: TrimUpper,
	SourceCSV:  TrimOnly,
}

// NormalizeGeoText applies the source's geographic text rule. Unknown sources
// get a plain trim.
func NormalizeGeoText(source Source, value string) string {
	if rule, ok := GeoTextRules[source]; ok {
		return rule(value)
	}
	return TrimOnly(value)
}
